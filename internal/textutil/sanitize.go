package textutil

import "strings"

// pathSegmentReplacer maps characters that break directory names to safe
// substitutes. Separators become dashes, the rest are dropped.
var pathSegmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizePathSegment makes a metadata value safe to use as a single
// directory or file name. Leading dots are stripped so segments cannot
// hide or escape. Returns "Unknown" when nothing usable remains.
func SanitizePathSegment(value string) string {
	value = pathSegmentReplacer.Replace(strings.TrimSpace(value))
	value = strings.TrimLeft(value, ".")
	value = strings.TrimSpace(value)
	if value == "" {
		return "Unknown"
	}
	return value
}
