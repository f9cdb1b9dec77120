package db

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	rules := map[string]validator.Func{
		"tagpath":   TagPathRule,
		"notetype":  NoteTypeRule,
		"scheduled": ScheduledDateRule,
	}

	for name, rule := range rules {
		if err := v.RegisterValidation(name, rule); err != nil {
			panic(fmt.Sprintf("error registering %s validation: %s", name, err))
		}
	}

	return v
}

// TagPathRule is the "tagpath" validation: the field must pass ValidateTagPath.
func TagPathRule(fl validator.FieldLevel) bool {
	return ValidateTagPath(fl.Field().String()) == nil
}

// NoteTypeRule is the "notetype" validation.
func NoteTypeRule(fl validator.FieldLevel) bool {
	return NoteType(fl.Field().String()).Valid()
}

// ScheduledDateRule is the "scheduled" validation: "", THIS_WEEK, SOMEDAY or an ISO date.
func ScheduledDateRule(fl validator.FieldLevel) bool {
	_, err := ParseScheduledDate(fl.Field().String())

	return err == nil
}

func validateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	return nil
}

// ValidateTagPath checks a slash-delimited tag path. Segments are made of letters, digits,
// '_', '-' and spaces; the path may not be empty, start or end with a slash, or contain "//".
func ValidateTagPath(path string) error {
	switch {
	case strings.TrimSpace(path) == "":
		return fmt.Errorf("%w: tag path is empty", ErrValidation)
	case strings.HasPrefix(path, "/"):
		return fmt.Errorf("%w: tag path %q starts with a slash", ErrValidation, path)
	case strings.HasSuffix(path, "/"):
		return fmt.Errorf("%w: tag path %q ends with a slash", ErrValidation, path)
	case strings.Contains(path, "//"):
		return fmt.Errorf("%w: tag path %q contains consecutive slashes", ErrValidation, path)
	}

	for _, r := range path {
		if !tagPathChar(r) {
			return fmt.Errorf("%w: tag path %q contains invalid character %q", ErrValidation, path, r)
		}
	}

	return nil
}

func tagPathChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == ' ', r == '/':
		return true
	}

	return false
}
