// Package email derives display names from school email addresses, so rosters
// show "Sophia Garcia" instead of a bare sophia.garcia@mergington.edu.
package email

import (
	"strings"
	"unicode"
)

// DisplayName builds a readable name from the local part of an email address.
// Separator characters split name segments; each segment is capitalized.
func DisplayName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return ""
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
