// Package strutil contains string utilities.
package strutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ChopLineEnding removes a line ending ("\r\n" or "\n") from the end of s. It
// returns s if it doesn't end with a line ending.
func ChopLineEnding(s string) string {
	if len(s) >= 2 && s[len(s)-2:] == "\r\n" {
		return s[:len(s)-2]
	} else if len(s) >= 1 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}

// Title returns s with the first codepoint changed to title case.
func Title(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}

// CamelToDashed converts a CamelCaseIdentifier to a dash-separated-identifier,
// or a camelCaseIdentifier to a -dash-separated-identifier. All-cap words are
// converted to lower case; HTTP becomes http and HTTPRequest becomes
// http-request.
func CamelToDashed(camel string) string {
	var sb strings.Builder
	runes := []rune(camel)
	for i, r := range runes {
		if (i == 0 && unicode.IsLower(r)) ||
			(0 < i && i < len(runes)-1 &&
				unicode.IsUpper(r) && unicode.IsLower(runes[i+1])) {
			sb.WriteRune('-')
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// JoinLines appends each line with a "\n" and joins all of them.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
