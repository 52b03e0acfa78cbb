package archive

import "strings"

// sanitizeFilename replaces every character that is not an ASCII letter
// or digit (one underscore per rune, so a non-ASCII letter also becomes
// an underscore), lowercases ASCII letters, strips leading/trailing
// underscores, and falls back to "dataset" if nothing is left.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "dataset"
	}
	return out
}

func datasetFilename(name, id string) string {
	return sanitizeFilename(name) + "_" + id + ".json"
}
