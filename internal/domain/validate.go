package domain

// ValidLabel reports whether name is a syntactically valid DNS label:
// 1-63 characters, lowercase letters, digits and hyphens, with no
// hyphen at either end. Invalid names are classified InvalidName at
// the probe stage and never forwarded.
func ValidLabel(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	if name[0] == '-' || name[len(name)-1] == '-' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}
