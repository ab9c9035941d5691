package users

import (
	"fmt"
	"regexp"
	"unicode"
)

// phonePattern accepts local and international forms with optional
// separators. Validation here only keeps obviously malformed numbers
// from reaching the backend; the backend remains the authority.
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 .-]{6,17}$`)

// ValidatePasswordStrength checks if a password meets requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("phone number %q is malformed", phone)
	}
	return nil
}

func validatePasswordPair(password, confirmation string) error {
	if password != confirmation {
		return fmt.Errorf("password confirmation does not match")
	}
	return ValidatePasswordStrength(password)
}
