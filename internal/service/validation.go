package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Baaaki/blog-platform/internal/apperr"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

// checkText validates an optional string field. required only applies when
// the field is absent.
func checkText(fields apperr.FieldErrors, name string, value *string, required bool, maxLen int) {
	if value == nil {
		if required {
			fields.Add(name, msgRequired)
		}
		return
	}
	if strings.TrimSpace(*value) == "" {
		fields.Add(name, msgBlank)
		return
	}
	if maxLen > 0 && utf8.RuneCountInString(*value) > maxLen {
		fields.Add(name, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
	}
}

// checkOptional validates a field that may be blank.
func checkOptional(fields apperr.FieldErrors, name string, value *string, maxLen int, pattern *regexp.Regexp, patternMsg string) {
	if value == nil || *value == "" {
		return
	}
	if maxLen > 0 && utf8.RuneCountInString(*value) > maxLen {
		fields.Add(name, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
		return
	}
	if pattern != nil && !pattern.MatchString(*value) {
		fields.Add(name, patternMsg)
	}
}

func checkPassword(fields apperr.FieldErrors, value *string, required bool) {
	if value == nil {
		if required {
			fields.Add("password", msgRequired)
		}
		return
	}
	switch n := utf8.RuneCountInString(*value); {
	case n < 8:
		fields.Add("password", "Ensure this field has at least 8 characters.")
	case n > 128:
		fields.Add("password", "Ensure this field has no more than 128 characters.")
	}
}

func checkUsername(fields apperr.FieldErrors, value *string, required bool) {
	checkText(fields, "username", value, required, 150)
	if value != nil && strings.TrimSpace(*value) != "" && !usernameRegex.MatchString(*value) {
		fields.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

func invalidPK(id uint) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
