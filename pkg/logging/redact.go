package logging

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?\b\d{3,4}[\s.-]?\d{3}[\s.-]?\d{4}\b`)
)

// Redact replaces emails with [EMAIL] and phone numbers with [PHONE] so
// patient contact details stay out of logs.
func Redact(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}

// MaskEmail keeps the first character of the local part and the domain,
// enough to tell accounts apart in a log without storing the address.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" {
		return "[EMAIL]"
	}
	return local[:1] + "***@" + domain
}
