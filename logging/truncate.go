package logging

import (
	"fmt"
	"unicode/utf8"
)

// Truncate shortens s to at most max runes, appending a marker with the
// number of runes dropped. max <= 0 returns s unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := utf8.RuneCountInString(s)
	if n <= max {
		return s
	}
	runes := []rune(s)
	return fmt.Sprintf("%s…(+%d)", string(runes[:max]), n-max)
}
