package entity

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

const maxFilteredLength = 200

// FilterError turns an upstream error into a message that is safe to show to a
// user: URLs are stripped, whitespace is collapsed and the text is bounded.
func FilterError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		msg = se.Message
	}

	msg = urlPattern.ReplaceAllString(msg, "")
	msg = whitespacePattern.ReplaceAllString(msg, " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxFilteredLength {
		msg = strings.TrimSpace(truncateRunes(msg, maxFilteredLength)) + "..."
	}
	if msg == "" {
		return "unknown error"
	}
	return msg
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
