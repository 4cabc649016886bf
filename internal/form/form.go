// Package form validates and normalizes lead form submissions.
package form

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"leadlens/internal/language"
)

// Data is a submitted lead form.
type Data struct {
	Name          string `json:"name" validate:"min=2,max=100"`
	Email         string `json:"email" validate:"leademail"`
	FavoriteColor string `json:"favoriteColor,omitempty" validate:"omitempty,min=2,max=50"`
}

// Result describes the outcome of Validate. Errors is keyed by JSON field name.
type Result struct {
	Valid  bool
	Errors map[string]language.Localized
}

// Messages renders each field error in lang.
func (r Result) Messages(lang language.Lang) map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for field, msg := range r.Errors {
		out[field] = msg.In(lang)
	}
	return out
}

// Fields lists the invalid fields in stable order.
func (r Result) Fields() []string {
	fields := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldFavoriteColor = "favoriteColor"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var fieldMessages = map[string]language.Localized{
	FieldName: {
		language.English:    "Name must be between 2 and 100 characters",
		language.Portuguese: "O nome deve ter entre 2 e 100 caracteres",
		language.Spanish:    "El nombre debe tener entre 2 y 100 caracteres",
	},
	FieldEmail: {
		language.English:    "Please enter a valid email address",
		language.Portuguese: "Por favor, insira um endereço de email válido",
		language.Spanish:    "Por favor, introduce un correo electrónico válido",
	},
	FieldFavoriteColor: {
		language.English:    "Color must be between 2 and 50 characters",
		language.Portuguese: "A cor deve ter entre 2 e 50 caracteres",
		language.Spanish:    "El color debe tener entre 2 y 50 caracteres",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return ValidateEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateName reports whether name is between 2 and 100 characters.
func ValidateName(name string) bool {
	return validate.Var(name, "min=2,max=100") == nil
}

// ValidateEmail reports whether email looks like local@domain.tld.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateColor reports whether color is between 2 and 50 characters.
func ValidateColor(color string) bool {
	return validate.Var(color, "min=2,max=50") == nil
}

// Sanitize trims every field and lowercases the email.
func Sanitize(d Data) Data {
	return Data{
		Name:          strings.TrimSpace(d.Name),
		Email:         strings.ToLower(strings.TrimSpace(d.Email)),
		FavoriteColor: strings.TrimSpace(d.FavoriteColor),
	}
}

// Validate checks d without modifying it. FavoriteColor is only checked when
// present.
func Validate(d Data) Result {
	result := Result{Valid: true, Errors: map[string]language.Localized{}}
	err := validate.Struct(d)
	if err == nil {
		return result
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.Valid = false
		return result
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		msg, known := fieldMessages[field]
		if !known {
			continue
		}
		result.Valid = false
		result.Errors[field] = msg
	}
	return result
}

// FieldMessage returns the validation message for field in lang, or an empty
// string for unknown fields.
func FieldMessage(field string, lang language.Lang) string {
	msg, ok := fieldMessages[field]
	if !ok {
		return ""
	}
	return msg.In(lang)
}
