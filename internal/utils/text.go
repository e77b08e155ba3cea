package utils

import (
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")
	closingFence = regexp.MustCompile("\n?```[ \t]*$")
	htmlTag      = regexp.MustCompile(`(?i)<(html|body|div|p|ul|ol|li|br|h[1-6]|span|strong|section|article|table)[\s/>]`)
)

// StripCodeFences removes a leading ```lang fence and a trailing ``` fence
// that models often wrap around JSON or markdown output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// LooksLikeHTML reports whether s contains common block-level HTML tags.
func LooksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}
