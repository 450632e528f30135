// AngelaMos | 2026
// validation.go

package core

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Iranian mobile numbers in international form: 00989 followed by nine
// digits.
var phonePattern = regexp.MustCompile(`^00989[0-9]{9}$`)

const (
	passwordMinLen = 8
	passwordMaxLen = 100
)

// RegisterValidations installs the shared input-policy rules. Both are
// enforced before any store access so malformed sign-in payloads never reach
// the repository.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("irphone", validatePhone); err != nil {
		return err
	}
	return v.RegisterValidation("strongpwd", validatePassword)
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// validatePassword enforces the complexity policy: length bounds plus at
// least one lower, upper, digit, and symbol.
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return false
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	return hasLower && hasUpper && hasDigit && hasSymbol
}
