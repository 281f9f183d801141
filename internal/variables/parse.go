package variables

import (
	"strconv"
	"strings"

	"pgshell/pkg/shelltypes"
)

// ParseBool interprets value as a boolean.
//
// Accepted are true, false, yes and no or any non-empty prefix of them, on
// and off or any prefix of at least two characters ("o" alone is ambiguous),
// and exactly 1 or 0. Matching is case-insensitive. ok is false for anything
// else, in which case result is meaningless and callers must leave their
// target untouched.
func ParseBool(value string) (result bool, ok bool) {
	v := strings.ToLower(value)
	switch {
	case v != "" && strings.HasPrefix("true", v):
		return true, true
	case v != "" && strings.HasPrefix("false", v):
		return false, true
	case v != "" && strings.HasPrefix("yes", v):
		return true, true
	case v != "" && strings.HasPrefix("no", v):
		return false, true
	case len(v) >= 2 && strings.HasPrefix("on", v):
		return true, true
	case len(v) >= 2 && strings.HasPrefix("off", v):
		return false, true
	case v == "1":
		return true, true
	case v == "0":
		return false, true
	default:
		return false, false
	}
}

// ParseNum interprets value as an integer with C strtol base-0 rules: an
// optional leading whitespace and sign, then decimal, 0x-prefixed hex or
// 0-prefixed octal. The whole string must be consumed and the result must fit
// in 32 bits.
func ParseNum(value string) (int, bool) {
	v := strings.TrimLeft(value, " \t\n\v\f\r")
	if v == "" || strings.Contains(v, "_") || isBinaryOrOctalPrefix(v) {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 0, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// isBinaryOrOctalPrefix rejects the 0b and 0o forms strconv accepts but strtol does not.
func isBinaryOrOctalPrefix(value string) bool {
	v := strings.TrimLeft(value, "+-")
	if len(v) < 2 || v[0] != '0' {
		return false
	}
	switch v[1] {
	case 'b', 'B', 'o', 'O':
		return true
	}
	return false
}

// ParseBoolVar parses value for variable name, reporting a Boolean-expected
// error through sink on failure. A nil value is treated as an empty string.
func ParseBoolVar(sink shelltypes.DiagnosticSink, name string, value *string) (bool, bool) {
	v := deref(value)
	b, ok := ParseBool(v)
	if !ok {
		sink.Errorf("unrecognized value \"%s\" for \"%s\": Boolean expected", v, name)
	}
	return b, ok
}

// ParseNumVar parses value for variable name, reporting an integer-expected
// error through sink on failure. A nil value is treated as an empty string.
func ParseNumVar(sink shelltypes.DiagnosticSink, name string, value *string) (int, bool) {
	v := deref(value)
	n, ok := ParseNum(v)
	if !ok {
		sink.Errorf("invalid value \"%s\" for \"%s\": integer expected", v, name)
	}
	return n, ok
}

// EnumError reports a value that is not one of a fixed set. suggestions
// should read like "fee, fi, fo, fum".
func EnumError(sink shelltypes.DiagnosticSink, name, value, suggestions string) {
	sink.Errorf("unrecognized value \"%s\" for \"%s\"\nAvailable values are: %s.", value, name, suggestions)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
