// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// NormalizePhone strips spaces, dashes and parentheses and reports whether
// what is left is a valid international phone number.
func NormalizePhone(phone string) (string, bool) {
	cleaned := strings.TrimSpace(phone)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	if !phonePattern.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}
