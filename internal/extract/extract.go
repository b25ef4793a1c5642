// Package extract recognizes one-time passcodes in email text.
package extract

import "regexp"

// Patterns are tried in a fixed priority: the first pattern yielding a valid
// candidate wins, even if a later pattern would also match. Bare-digit tiers
// come before keyword-prefixed forms.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{6})\b`), // most common 6-digit OTP
	regexp.MustCompile(`(?i)\b(\d{4})\b`),
	regexp.MustCompile(`(?i)\b(\d{5})\b`),
	regexp.MustCompile(`(?i)\b(\d{8})\b`),
	regexp.MustCompile(`(?i)code[:\s\-]*(\d{4,8})`),
	regexp.MustCompile(`(?i)verification[:\s\-]*(\d{4,8})`),
	regexp.MustCompile(`(?i)otp[:\s\-]*(\d{4,8})`),
	regexp.MustCompile(`(?i)pin[:\s\-]*(\d{4,8})`),
	regexp.MustCompile(`(?i)token[:\s\-]*(\d{4,8})`),
	regexp.MustCompile(`(?i)confirm[:\s\-]*(\d{4,8})`),
	regexp.MustCompile(`(?i)authenticate[:\s\-]*(\d{4,8})`),
	regexp.MustCompile(`(?i)security[:\s\-]*(\d{4,8})`),
}

// Extract returns the first code candidate found in text, or false when no
// pattern yields a digits-only token of length 4 to 8.
func Extract(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	for _, pattern := range patterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		for _, match := range matches {
			if len(match) < 2 {
				continue
			}
			code := match[1]
			if valid(code) {
				return code, true
			}
		}
	}
	return "", false
}

func valid(code string) bool {
	if len(code) < 4 || len(code) > 8 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
