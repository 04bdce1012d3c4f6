package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/YashVG/techprep-sub000/internal/models"
)

var (
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	courseCodePattern = regexp.MustCompile(`^[A-Za-z]{3,4}[0-9]{3}$`)
)

// NewValidator returns a validator with the domain tags registered and field
// names reported by their JSON keys.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("course_code", func(fl validator.FieldLevel) bool {
		return courseCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return models.Language(fl.Field().String()).Valid()
	})
	return v
}

// ValidationMessage renders the first field failure as a client-facing sentence.
func ValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request payload"
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be a positive id", field)
	case "username":
		return "username must be 3-30 letters, digits or underscores"
	case "course_code":
		return fmt.Sprintf("%s must be 3-4 letters followed by 3 digits", field)
	case "nonul":
		return fmt.Sprintf("%s must not contain NUL characters", field)
	case "language":
		names := make([]string, len(models.Languages))
		for i, l := range models.Languages {
			names[i] = string(l)
		}
		return fmt.Sprintf("language must be one of %s", strings.Join(names, ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
