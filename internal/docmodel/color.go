package docmodel

import "strings"

// Highlights is the fixed highlight enumeration of the package format,
// mapped to display RGB.
var Highlights = map[string]string{
	"yellow":      "FFFF00",
	"green":       "00FF00",
	"cyan":        "00FFFF",
	"magenta":     "FF00FF",
	"blue":        "0000FF",
	"red":         "FF0000",
	"darkBlue":    "000080",
	"darkCyan":    "008080",
	"darkGreen":   "008000",
	"darkMagenta": "800080",
	"darkRed":     "800000",
	"darkYellow":  "808000",
	"black":       "000000",
	"lightGray":   "C0C0C0",
	"darkGray":    "808080",
}

// HighlightFor returns the highlight name whose RGB equals hex exactly.
func HighlightFor(hex string) (string, bool) {
	hex, ok := ParseHex(hex)
	if !ok {
		return "", false
	}
	for name, rgb := range Highlights {
		if rgb == hex {
			return name, true
		}
	}
	return "", false
}

// ParseHex validates a 3- or 6-digit hex RGB value, with or without a
// leading '#', and returns it as six upper-case digits.
func ParseHex(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return "", false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return "", false
		}
	}
	return strings.ToUpper(s), true
}
