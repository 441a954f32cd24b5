package validation

import (
	"regexp"
)

// Validation rule patterns
var (
	// Facilitator pin: two letters followed by six digits
	PinPattern = `^[A-Za-z][A-Za-z]\d{6}$`

	// Email validation pattern used outside gin binding
	EmailPattern = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`

	// Password min length
	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Pin   *regexp.Regexp
	Email *regexp.Regexp
}{
	Pin:   regexp.MustCompile(PinPattern),
	Email: regexp.MustCompile(EmailPattern),
}

// ValidPin reports whether pin matches the facilitator pin format.
// Pin uniqueness within a project is checked at the service layer because it
// needs the repository; this only covers the shape.
func ValidPin(pin string) bool {
	return CompiledPatterns.Pin.MatchString(pin)
}

// ValidEmail reports whether the address has a plausible email shape
func ValidEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(email)
}
