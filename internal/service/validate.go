package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=80,username"`
	Email    string `json:"email" validate:"required,max=120,email"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ListInput carries the writable fields of a list.
type ListInput struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description"`
}

// ItemInput carries the fields of a new item.
type ItemInput struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description"`
}

// ItemPatch lists the item fields to change. Nil fields are left alone;
// SetDescription with a nil Description clears it.
type ItemPatch struct {
	Completed      *bool
	Title          *string
	Description    *string
	SetDescription bool
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(field.Name)
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		var letter, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return letter && digit
	})
	return v
}

// validateStruct runs the struct tags of in and folds every failing field
// into one validation error.
func (s *Service) validateStruct(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return internal("validation failed", err)
	}

	var result *multierror.Error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, errors.New(fieldMessage(fe)))
	}
	result.ErrorFormat = joinMessages
	return &Error{Kind: KindValidation, Message: result.Error(), Err: result}
}

func (s *Service) validateTitle(title string) error {
	if err := s.validate.Var(title, "required,max=100"); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && fieldErrs[0].Tag() == "max" {
			return newError(KindValidation, "title must be at most 100 characters")
		}
		return newError(KindValidation, "title is required")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return "email must be a valid email address"
	case "username":
		return "username may only contain letters, digits, '.', '_' and '-'"
	case "password":
		return "password must contain at least one letter and one digit"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func joinMessages(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}
