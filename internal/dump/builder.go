// Package dump renders the files under a root into a single Markdown artifact
// that never exceeds a total byte ceiling.
package dump

import (
	"context"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/temirov/dumpo/internal/budget"
	"github.com/temirov/dumpo/internal/enumerate"
	"github.com/temirov/dumpo/internal/selector"
	"github.com/temirov/dumpo/internal/types"
	"github.com/temirov/dumpo/internal/utils"
)

const (
	debugUnreadableMessage = "skipping unreadable file"
	debugBinaryMessage     = "skipping binary file"
	debugTruncatedMessage  = "file truncated"
	debugTotalLimitMessage = "total byte limit reached"
)

// Options configures Build.
type Options struct {
	Root          string
	MaxFileBytes  int
	MaxTotalBytes int
	IncludeHidden bool
	// Selector narrows the enumerated files. Nil selects everything.
	Selector *selector.Selector
	// ReadConcurrency bounds concurrent file reads. Zero means runtime.NumCPU().
	ReadConcurrency int
	Logger          *zap.Logger
}

// Result holds the rendered artifact and counters describing how it was built.
type Result struct {
	Content           []byte
	Files             int
	TruncatedFiles    int
	SkippedBinary     int
	SkippedUnreadable int
	DocumentTruncated bool
}

type outcome int

const (
	outcomeRendered outcome = iota
	outcomeTotalLimit
)

type renderer struct {
	writer       *budget.Writer
	maxFileBytes int
	logger       *zap.Logger
	result       *Result
}

// BuildBytes renders root with default read concurrency and returns only the
// artifact bytes.
func BuildBytes(root string, maxFileBytes int, maxTotalBytes int, includeHidden bool, fileSelector *selector.Selector) ([]byte, error) {
	result, buildError := Build(context.Background(), Options{
		Root:          root,
		MaxFileBytes:  maxFileBytes,
		MaxTotalBytes: maxTotalBytes,
		IncludeHidden: includeHidden,
		Selector:      fileSelector,
	})
	if buildError != nil {
		return nil, buildError
	}
	return result.Content, nil
}

// Build enumerates the files under options.Root and renders them in sorted
// order. Files are rendered whole or not at all. When the total ceiling stops
// the document early the remaining files are omitted and the truncation footer
// is appended; the artifact length never exceeds MaxTotalBytes.
func Build(ctx context.Context, options Options) (Result, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, collectError := enumerate.Collect(options.Root, options.IncludeHidden, options.Selector, enumerate.WithLogger(logger))
	if collectError != nil {
		return Result{}, collectError
	}

	var result Result
	state := &renderer{
		writer:       budget.New(options.MaxTotalBytes - len(Footer)),
		maxFileBytes: options.MaxFileBytes,
		logger:       logger,
		result:       &result,
	}

	documentOutcome := outcomeRendered
	if state.writer.Append(headerBlock(options.Root)) != nil {
		documentOutcome = outcomeTotalLimit
	} else {
		var renderError error
		documentOutcome, renderError = state.renderEntries(ctx, entries, options.ReadConcurrency)
		if renderError != nil {
			return Result{}, renderError
		}
	}

	content := append([]byte(nil), state.writer.Bytes()...)
	if documentOutcome == outcomeTotalLimit {
		logger.Debug(debugTotalLimitMessage, zap.Int("max_total_bytes", options.MaxTotalBytes), zap.Int("content_budget", state.writer.Capacity()))
		content = append(content, footerWithin(options.MaxTotalBytes-len(content))...)
		result.DocumentTruncated = true
	}
	result.Content = content
	return result, nil
}

func (state *renderer) renderEntries(ctx context.Context, entries []types.Entry, readConcurrency int) (outcome, error) {
	if readConcurrency <= 0 {
		readConcurrency = runtime.NumCPU()
	}
	reader := startPrefetch(ctx, entries, readConcurrency)
	defer reader.stop()

	for _, entry := range entries {
		read, ok := reader.next()
		if !ok {
			break
		}
		if read.err != nil {
			if contextError := ctx.Err(); contextError != nil {
				return outcomeRendered, contextError
			}
			state.result.SkippedUnreadable++
			state.logger.Debug(debugUnreadableMessage, zap.String("path", entry.RelativePath), zap.Error(read.err))
			continue
		}
		if utils.ContainsNUL(read.content) {
			state.result.SkippedBinary++
			if state.logger.Core().Enabled(zap.DebugLevel) {
				state.logger.Debug(debugBinaryMessage, zap.String("path", entry.RelativePath), zap.String("mime", mimetype.Detect(read.content).String()))
			}
			continue
		}
		if state.renderFile(entry.RelativePath, read.content) == outcomeTotalLimit {
			return outcomeTotalLimit, nil
		}
	}
	if contextError := ctx.Err(); contextError != nil {
		return outcomeRendered, contextError
	}
	return outcomeRendered, nil
}

// renderFile plans the whole block for one file before committing it. The
// per-file cap and the truncation decision are measured on the raw bytes.
func (state *renderer) renderFile(relativePath string, raw []byte) outcome {
	prefix := filePrefix(relativePath)

	available := state.writer.Remaining() - len(prefix) - len(closingFenceBlock)
	contentCap := min(state.maxFileBytes, available)
	if contentCap <= 0 {
		return outcomeTotalLimit
	}
	truncated := len(raw) > contentCap
	var text string
	if truncated {
		room := available - len(fileTruncatedMarker)
		contentCap = min(state.maxFileBytes, room)
		if contentCap <= 0 {
			return outcomeTotalLimit
		}
		text = decodeLossy(raw[:runeBoundary(raw, contentCap)], room)
	} else {
		text = strings.ToValidUTF8(string(raw), replacementCharacter)
	}

	var block strings.Builder
	block.Grow(len(prefix) + len(text) + len(closingFenceBlock) + len(fileTruncatedMarker))
	block.WriteString(prefix)
	block.WriteString(text)
	if !strings.HasSuffix(text, newline) {
		block.WriteString(newline)
	}
	block.WriteString(closingFence)
	if truncated {
		block.WriteString(fileTruncatedMarker)
	}

	if state.writer.Append(block.String()) != nil {
		return outcomeTotalLimit
	}
	state.result.Files++
	if truncated {
		state.result.TruncatedFiles++
		state.logger.Debug(debugTruncatedMessage, zap.String("path", relativePath), zap.Int("original_bytes", len(raw)), zap.Int("kept_bytes", len(text)))
	}
	return outcomeRendered
}

// runeBoundary moves limit back to the start of a valid rune that would
// otherwise be split. Invalid bytes are cut where they are.
func runeBoundary(raw []byte, limit int) int {
	if limit >= len(raw) {
		return len(raw)
	}
	for start := limit - 1; start >= 0 && start > limit-utf8.UTFMax; start-- {
		if !utf8.RuneStart(raw[start]) {
			continue
		}
		decodedRune, size := utf8.DecodeRune(raw[start:])
		if (decodedRune != utf8.RuneError || size > 1) && start+size > limit {
			return start
		}
		return limit
	}
	return limit
}

// decodeLossy decodes raw into valid UTF-8, replacing each run of invalid
// bytes with one replacement character, and stops before the decoded text
// would exceed room bytes.
func decodeLossy(raw []byte, room int) string {
	var decoded strings.Builder
	invalidRun := false
	for index := 0; index < len(raw); {
		decodedRune, size := utf8.DecodeRune(raw[index:])
		if decodedRune == utf8.RuneError && size == 1 {
			if !invalidRun {
				if decoded.Len()+len(replacementCharacter) > room {
					break
				}
				decoded.WriteString(replacementCharacter)
				invalidRun = true
			}
			index++
			continue
		}
		if decoded.Len()+size > room {
			break
		}
		decoded.Write(raw[index : index+size])
		invalidRun = false
		index += size
	}
	return decoded.String()
}
