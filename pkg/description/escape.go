package description

import "strings"

var (
	cellEscaper = strings.NewReplacer(
		"&", "&amp;",
		"|", "&#124;",
		"\r", "&#13;",
		"\n", "&#10;",
	)
	cellUnescaper = strings.NewReplacer(
		"&#124;", "|",
		"&#13;", "\r",
		"&#10;", "\n",
		"&amp;", "&",
	)
)

// escapeCell makes value safe to embed in a table cell.
func escapeCell(value string) string {
	return cellEscaper.Replace(value)
}

func unescapeCell(value string) string {
	return cellUnescaper.Replace(value)
}

// asciiLower lowercases ASCII letters only so byte offsets stay valid in the original.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func containsFold(s, substr string) bool {
	return strings.Contains(asciiLower(s), asciiLower(substr))
}
