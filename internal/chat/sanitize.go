package chat

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength caps message text in characters.
const MaxMessageLength = 8000

var (
	scriptTagRegex = regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`)
	onEventRegex   = regexp.MustCompile(`(?i)\s+on\w+\s*=`)
)

// SanitizeText trims and cleans message text before it is rendered or
// persisted. Returns ErrEmptyText when nothing usable remains.
func SanitizeText(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", ErrTooLong
	}

	text = scriptTagRegex.ReplaceAllString(text, "")
	text = onEventRegex.ReplaceAllString(text, " ")
	text = html.EscapeString(text)
	text = strings.TrimSpace(text)

	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
