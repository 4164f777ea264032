package schema

import "strings"

// NormalizeJobName turns a free-form job name into a directory-safe slug.
// Allowed characters: a-z, 0-9, '-', '_'. Anything else becomes '-'.
// Leading and trailing separators are trimmed; an empty result becomes "job".
func NormalizeJobName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-_")
	if slug == "" {
		return "job"
	}
	return slug
}
