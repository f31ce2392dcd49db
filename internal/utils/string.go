package utils

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeSubject lowercases a subject and collapses all interior whitespace,
// so that subject comparison is case- and whitespace-insensitive. Reply and
// forward prefixes are stripped first
func NormalizeSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	prefixRegex := regexp.MustCompile(`(?i)^(Re|Fwd|Fw)(\[\d+\])?:\s*`)
	for prefixRegex.MatchString(subject) {
		subject = prefixRegex.ReplaceAllString(subject, "")
		subject = strings.TrimSpace(subject)
	}
	subject = whitespaceRegex.ReplaceAllString(subject, " ")
	return strings.ToLower(subject)
}

func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}

// StripSeparators drops the conventional punctuation of identity tokens,
// leaving digits only
func StripSeparators(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
