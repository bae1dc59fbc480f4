// Package validation содержит валидатор с правилами дашборда.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var safeFilename = regexp.MustCompile(`^[^/\\\x00]+$`)

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("safe_filename", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name != "." && name != ".." && safeFilename.MatchString(name)
	})
	_ = v.RegisterValidation("no_control", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
	})
	return v
}

// Message превращает ошибку валидатора в короткий текст для пользователя.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required and must be a string.", fe.Field())
	case "no_control":
		return fmt.Sprintf("%s must not contain control characters.", fe.Field())
	case "safe_filename":
		return fmt.Sprintf("%s is not a valid file name.", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s).", fe.Field(), fe.Tag())
	}
}
