package tokenizer

import (
	"errors"
	"unicode/utf8"

	"github.com/temirov/dumpo/internal/utils"
)

// CountResult captures the outcome of counting a byte slice.
type CountResult struct {
	Tokens  int
	Counted bool
}

var errNilCounter = errors.New("nil tokenizer counter")

// CountBytes estimates tokens for data. Binary or invalid UTF-8 input is not
// counted.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	if utils.ContainsNUL(data) || !utf8.Valid(data) {
		return CountResult{Counted: false}, nil
	}
	tokens, err := counter.CountString(string(data))
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}
