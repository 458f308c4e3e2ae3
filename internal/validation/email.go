package validation

import (
	"errors"
	"strings"
)

// ValidateEmail checks format and the RFC 5321 length limit.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	err := validate.Var(email, "email")
	if err != nil {
		return errors.New("invalid email address format")
	}

	return nil
}

// ValidateUsername checks admin login names.
func ValidateUsername(username string) error {
	err := validate.Var(username, "required,min=3,max=64,printascii")
	if err != nil || strings.ContainsRune(username, ' ') {
		return errors.New("username must be 3-64 printable ASCII characters without spaces")
	}
	return nil
}
