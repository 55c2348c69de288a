package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// maxLoggedRunes bounds chat text written to logs.
const maxLoggedRunes = 160

// RedactPII masks emails, card numbers and phone numbers.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	// Cards before phones, or long card numbers get tagged as phones.
	for _, r := range []struct {
		re   *regexp.Regexp
		mask string
	}{
		{emailPattern, "[REDACTED_EMAIL]"},
		{cardPattern, "[REDACTED_CARD]"},
		{phonePattern, "[REDACTED_PHONE]"},
	} {
		next := r.re.ReplaceAllString(out, r.mask)
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// LogText prepares user supplied chat text for a log field.
func LogText(input string) string {
	out, _ := RedactPII(strings.TrimSpace(input))
	if utf8.RuneCountInString(out) <= maxLoggedRunes {
		return out
	}
	runes := []rune(out)
	return string(runes[:maxLoggedRunes]) + "…"
}
