package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "!@#$%^&*"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// CustomValidator plugs go-playground/validator into echo and turns its
// errors into field-level messages.
type CustomValidator struct {
	validate *validator.Validate
}

// NewValidator builds the validator used by echo's c.Validate.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordProblem(fl.Field().String()) == ""
	})
	return &CustomValidator{validate: v}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperror.NewFieldErrors(FieldMessages(verrs))
	}
	return apperror.NewValidationError("Invalid request payload", err)
}

// FieldMessages maps each failing field to one readable message.
func FieldMessages(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "password":
		s, _ := fe.Value().(string)
		return PasswordProblem(s)
	case "datetime":
		return "Date has wrong format. Use YYYY-MM-DD."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}

// PasswordProblem returns the first complexity rule the password breaks, or ""
// when it satisfies all of them.
func PasswordProblem(password string) string {
	if len([]rune(password)) < 8 {
		return "Password must be at least 8 characters long."
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Sprintf("Password must be at most %d bytes long.", MaxPasswordBytes)
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !upper:
		return "Password must contain at least one uppercase letter."
	case !lower:
		return "Password must contain at least one lowercase letter."
	case !digit:
		return "Password must contain at least one digit."
	case !special:
		return "Password must contain at least one special character (!@#$%^&*)."
	}
	return ""
}
