package core

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ImportRequest is one file submitted for import.
type ImportRequest struct {
	Kind     Kind   `json:"kind" validate:"required,import_kind"`
	TenantID string `json:"tenantId" validate:"required,max=128"`
	FileName string `json:"fileName" validate:"required,max=255"`
	Data     []byte `json:"-"`

	// EnrollmentYear overrides the school year stamped on students.
	EnrollmentYear string `json:"enrollmentYear" validate:"omitempty,academic_year"`
}

// RequestError lists the fields of an ImportRequest that failed validation.
type RequestError struct {
	Fields map[string]string // json field name → failed rule
}

func (e *RequestError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%s)", name, e.Fields[name])
	}
	return "invalid import request: " + strings.Join(parts, ", ")
}

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// newRequestValidator builds the validator used for import requests.
// Field errors are reported under their json names.
func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("import_kind", func(fl validator.FieldLevel) bool {
		_, err := ParseKind(fl.Field().String())
		return err == nil
	})

	_ = v.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		return ValidAcademicYear(fl.Field().String())
	})

	return v
}

// ValidAcademicYear reports whether s names two consecutive years, as in
// "2025-2026".
func ValidAcademicYear(s string) bool {
	m := academicYearPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

// validateRequest checks req and returns a *RequestError on failure.
func validateRequest(v *validator.Validate, req ImportRequest) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate import request: %w", err)
	}

	reqErr := &RequestError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		reqErr.Fields[fe.Field()] = fe.Tag()
	}
	return reqErr
}
