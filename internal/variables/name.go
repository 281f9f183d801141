package variables

// IsNameByte reports whether b may appear in a variable name: an ASCII
// letter, digit or underscore, or any byte with the high bit set.
// The slash-command scanner lexes :name references with the same predicate.
func IsNameByte(b byte) bool {
	switch {
	case b >= 0x80:
		return true
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '_':
		return true
	default:
		return false
	}
}

// ValidName reports whether name is an acceptable variable name.
// Non-ASCII bytes are accepted as opaque payload and not further validated.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !IsNameByte(name[i]) {
			return false
		}
	}
	return true
}
