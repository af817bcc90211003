package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names, as the clients send them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct checks the validate tags of v and returns the first
// violation as *domain.ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	return &domain.ErrValidation{Field: fieldPath(fe), Message: describe(fe)}
}

// fieldPath drops the struct name prefix: "InPatient.patient_name" -> "patient_name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

// requireNotBlank treats whitespace-only identity fields as missing.
func requireNotBlank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ErrValidation{Field: field, Message: "required"}
	}
	return nil
}
