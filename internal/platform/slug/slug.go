package slug

import (
	"strings"
	"unicode"
)

const maxRunes = 48

// Make turns a title into a file-name fragment. Letters and digits of any
// script are kept and lower-cased; everything else collapses to one dash.
func Make(title string) string {
	var sb strings.Builder
	dash := false
	n := 0
	for _, r := range strings.TrimSpace(title) {
		if n == maxRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
			dash = false
			n++
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
			n++
		}
	}
	s := strings.Trim(sb.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}
