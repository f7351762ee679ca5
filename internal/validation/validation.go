package validation

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	handleRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{2,39}$`)

	strictPolicy = bluemonday.StrictPolicy()
)

// MaxWordsPerSession bounds per-session word counts set by admins
const MaxWordsPerSession = 200

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks admin password requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateStudentPassword checks passwords chosen by admins for students.
// These are shorter than admin passwords since young learners type them.
func ValidateStudentPassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 4 {
		return ValidationError{Field: "password", Message: "password must be at least 4 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len([]rune(name)) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateHandle checks a student login handle
func ValidateHandle(handle string) error {
	if handle == "" {
		return ValidationError{Field: "login_handle", Message: "login handle is required"}
	}
	if !handleRegex.MatchString(handle) {
		return ValidationError{Field: "login_handle", Message: "use 3-40 lowercase letters, digits or hyphens"}
	}
	return nil
}

// ValidateWordsPerSession checks a words-per-session count
func ValidateWordsPerSession(n int) error {
	if n < 1 || n > MaxWordsPerSession {
		return ValidationError{
			Field:   "words_per_session",
			Message: fmt.Sprintf("must be between 1 and %d", MaxWordsPerSession),
		}
	}
	return nil
}

// ValidateWeekday checks a weekday number (0 = Sunday)
func ValidateWeekday(day int) error {
	if day < 0 || day > 6 {
		return ValidationError{Field: "weekday", Message: "weekday must be between 0 and 6"}
	}
	return nil
}

// ValidateRequired rejects blank values
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// SanitizeText strips any markup from free text entered by admins and trims it.
// Plain characters such as apostrophes and ampersands are preserved.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}
