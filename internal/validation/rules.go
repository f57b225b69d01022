// Package validation checks form input before it is sent to the scheduler.
//
// Rules are declared as struct tags on the model inputs and compiled once by
// go-playground/validator. Violations use the same flat locations the
// scheduler reports, so client and server errors render the same way.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
	// ISO-8601 duration restricted to day/time components, e.g. P1D, PT30S, PT1H30M
	isoDurationPattern = regexp.MustCompile(`^P(?:\d+D)?(?:T(?:\d+H)?(?:\d+M)?(?:\d+S)?)?$`)
)

var httpMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"OPTIONS": true,
}

// scheduleParser accepts standard five-field expressions and @descriptors
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// defaultMessages maps a rule tag to its message. %s is replaced by the rule parameter.
var defaultMessages = map[string]string{
	"required":    "This field is required",
	"max":         "Must be at most %s characters",
	"min":         "Must be at least %s",
	"oneof":       "Must be one of: %s",
	"eq":          "Must be %s",
	"url":         "Must be an absolute URL",
	"identifier":  "Only letters, digits, '_', '-' and '.' are allowed, starting with a letter or '_'",
	"isoduration": "Must be an ISO-8601 duration, e.g. PT30S",
	"cron":        "Must be a cron expression, e.g. */5 * * * *",
	"httpmethod":  "Must be a valid HTTP method",
}

// Violation is a single failed rule
type Violation struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// Violations is the result of a validation pass
type Violations []Violation

// ToMap flattens violations into location to message. The first violation per
// location wins. Returns nil when there are no violations.
func (v Violations) ToMap() map[string]string {
	if len(v) == 0 {
		return nil
	}

	m := make(map[string]string, len(v))
	for _, violation := range v {
		if _, ok := m[violation.Location]; !ok {
			m[violation.Location] = violation.Message
		}
	}
	return m
}

// Rules is a compiled rule set with its messages
type Rules struct {
	validate *validator.Validate
	messages map[string]string
}

// NewRules compiles the rule set. overrides replaces messages per rule tag.
func NewRules(overrides map[string]string) (*Rules, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"identifier": func(fl validator.FieldLevel) bool {
			return identifierPattern.MatchString(fl.Field().String())
		},
		"isoduration": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "P" && !strings.HasSuffix(s, "T") && isoDurationPattern.MatchString(s)
		},
		"cron": func(fl validator.FieldLevel) bool {
			_, err := scheduleParser.Parse(fl.Field().String())
			return err == nil
		},
		"httpmethod": func(fl validator.FieldLevel) bool {
			return httpMethods[fl.Field().String()]
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, errors.Wrapf(err, "failed to register rule %q", tag)
		}
	}

	messages := make(map[string]string, len(defaultMessages)+len(overrides))
	for tag, msg := range defaultMessages {
		messages[tag] = msg
	}
	for tag, msg := range overrides {
		messages[tag] = msg
	}

	return &Rules{validate: v, messages: messages}, nil
}

// MustRules is NewRules for package-level rule sets
func MustRules(overrides map[string]string) *Rules {
	r, err := NewRules(overrides)
	if err != nil {
		panic(err)
	}
	return r
}

// Check runs the rules declared on value (a struct or pointer to struct).
// Locations are relative to value: the root type name is stripped.
func (r *Rules) Check(value any) Violations {
	err := r.validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Violations{{Location: "", Message: err.Error()}}
	}

	violations := make(Violations, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{
			Location: location(fe.Namespace()),
			Message:  r.message(fe),
		})
	}
	return violations
}

func (r *Rules) message(fe validator.FieldError) string {
	msg, ok := r.messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("Failed rule %q", fe.Tag())
	}

	switch {
	case fe.Tag() == "max" && fe.Kind() == reflect.Slice:
		msg = "Must contain at most %s items"
	case fe.Tag() == "max" && fe.Kind() != reflect.String:
		msg = "Must be at most %s"
	}
	if fe.Tag() == "oneof" {
		return fmt.Sprintf(msg, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

// location strips the root struct name from a validator namespace,
// "HTTPRequest.headers[0].name" becomes "headers[0].name"
func location(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}
