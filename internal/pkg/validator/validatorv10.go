package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/otpauth/internal/pkg/strcase"
)

var (
	// Based on NIST 800-63B Guidelines; bcrypt ignores bytes past 72.
	rePasswordLength = regexp.MustCompile(`^.{8,72}$`)
	reDigitsOnly     = regexp.MustCompile(`^\d+$`)
	rePhone          = regexp.MustCompile(`^8\d{10}$`)
	reOTPCode        = regexp.MustCompile(`^\d{4}$`)
	reUsername       = regexp.MustCompile(`^[A-Za-z0-9._-]{3,150}$`)
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are field names in snake_case to match typical JSON conventions.
type V10ValidationError map[string]string

// Error implements the error interface.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := v10CustomValidation(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	if err := v.validate.Struct(data); err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			return err
		}

		errV10 := make(V10ValidationError)
		for _, fe := range validateErrs {
			errV10[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
		}

		return errV10
	}

	return nil
}

type customRule struct {
	tag     string
	message string
	check   func(string) bool
}

var customRules = []customRule{
	{
		tag:     "password",
		message: "{0} must be 8-72 characters and not entirely numeric",
		check: func(s string) bool {
			return rePasswordLength.MatchString(s) && !reDigitsOnly.MatchString(s)
		},
	},
	{
		tag:     "phone",
		message: "{0} must be in the format 8XXXXXXXXXX",
		check:   rePhone.MatchString,
	},
	{
		tag:     "otp_code",
		message: "{0} must be a 4-digit code",
		check:   reOTPCode.MatchString,
	},
	{
		tag:     "username",
		message: "{0} must be 3-150 letters, digits or ._- and contain a letter",
		check: func(s string) bool {
			if !reUsername.MatchString(s) {
				return false
			}
			for _, r := range s {
				if unicode.IsLetter(r) {
					return true
				}
			}
			return false
		},
	},
}

func v10CustomValidation(validate *validator.Validate, enTrans ut.Translator) error {
	for _, rule := range customRules {
		check := rule.check
		err := validate.RegisterValidation(rule.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && check(s)
		})
		if err != nil {
			return fmt.Errorf("register %s validation: %w", rule.tag, err)
		}

		tag, message := rule.tag, rule.message
		err = validate.RegisterTranslation(tag, enTrans,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, false)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, err := ut.T(fe.Tag(), strcase.ToLowerSnake(fe.Field()))
				if err != nil {
					slog.Warn("warning: error translating", "FieldError", fe, "error", err)
					return fe.Error()
				}
				return t
			},
		)
		if err != nil {
			return fmt.Errorf("register %s translation: %w", rule.tag, err)
		}
	}

	return nil
}
