package registration

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed, in form order.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Message)
	}
	return "invalid submission: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Add(field, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e as an error, or nil when nothing was added.
func (e *ValidationError) Err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name, the name forms and API clients use.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// phone accepts local formats with spaces, dashes and brackets.
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Struct checks the `validate` tags of s. Failures come back as a
// *ValidationError naming fields by their JSON name.
func Struct(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), "%s", message(label(fe.Field()), fe.Tag(), fe.Param()))
	}
	return verr.Err()
}

func message(label, tag, param string) string {
	switch tag {
	case "required":
		return label + " is required"
	case "required_without":
		return fmt.Sprintf("%s or %s is required", label, strings.ToLower(param))
	case "email":
		return label + " must be a valid email address"
	case "phone":
		return label + " must be a valid phone number"
	case "numeric":
		return label + " must be a number"
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", label, param)
	}
	return label + " is invalid"
}

// label turns a JSON field name into the words shown to a visitor.
func label(field string) string {
	words := strings.ReplaceAll(field, "_", " ")
	if words == "" {
		return words
	}
	return strings.ToUpper(words[:1]) + words[1:]
}

var fieldRules = map[FieldType]string{
	FieldEmail:  "email",
	FieldTel:    "phone",
	FieldNumber: "numeric",
}

// Validate checks data against fields and returns the answers keyed by field
// id. Keys that are not fields of the form are dropped.
func Validate(fields []FormField, data map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(fields))
	verr := &ValidationError{}

	for _, f := range fields {
		v := strings.TrimSpace(data[f.ID])
		if v == "" {
			if f.Required {
				verr.Add(f.ID, "%s", message(f.Label, "required", ""))
			}
			continue
		}

		if rule, ok := fieldRules[f.Type]; ok {
			if err := validate.Var(v, rule); err != nil {
				verr.Add(f.ID, "%s", message(f.Label, rule, ""))
				continue
			}
		}

		clean[f.ID] = v
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return clean, nil
}
