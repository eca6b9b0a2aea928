package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName         = "bool"
	booleanFlagTrueLiteral      = "true"
	booleanFlagPrefix           = "--"
	booleanFlagTerminator       = "--"
	booleanFlagAcceptedListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueText = "invalid boolean value"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// parseBooleanLiteral accepts the literals above case-insensitively. An empty
// input means true, which is what a bare --flag carries.
func parseBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, ok := booleanFlagLiterals[normalized]
	return parsed, ok
}

// booleanFlagValue is a pflag.Value for boolean switches that also accept
// yes/no and on/off spellings.
type booleanFlagValue struct {
	target *bool
	name   string
}

func (value *booleanFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q", booleanFlagInvalidValueText, input)
	}
	parsed, ok := parseBooleanLiteral(input)
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueText, input, value.name, booleanFlagAcceptedListing)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = booleanFlagTrueLiteral
}

// normalizeBooleanFlagArguments joins "--flag value" into "--flag=value" for
// boolean flags when value is a boolean literal, so that both spellings work.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == booleanFlagTerminator {
			return append(normalized, arguments[index:]...)
		}
		if joined, ok := joinBooleanValue(booleanFlags, argument, arguments[index+1:]); ok {
			normalized = append(normalized, joined)
			index++
			continue
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func joinBooleanValue(booleanFlags map[string]struct{}, argument string, rest []string) (string, bool) {
	if len(rest) == 0 || !strings.HasPrefix(argument, booleanFlagPrefix) || strings.Contains(argument, "=") {
		return "", false
	}
	flagName := strings.TrimPrefix(argument, booleanFlagPrefix)
	if _, isBoolean := booleanFlags[flagName]; !isBoolean {
		return "", false
	}
	candidate := rest[0]
	if strings.HasPrefix(candidate, "-") || strings.TrimSpace(candidate) == "" {
		return "", false
	}
	if _, ok := parseBooleanLiteral(candidate); !ok {
		return "", false
	}
	return argument + "=" + candidate, true
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	record := func(flag *pflag.Flag) {
		if flag != nil && flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(record)
	command.Flags().VisitAll(record)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
