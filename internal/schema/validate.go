package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tordrt/erdschema/internal/errors"
)

// Validate checks the structural tags of the schema model.
// Cross-references between tables are checked later by the compiler.
func Validate(s *Schema) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		// Use JSON field name in error messages
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.ErrTypeValidation, "invalid schema")
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		path := strings.TrimPrefix(e.Namespace(), "Schema.")
		msgs = append(msgs, fmt.Sprintf("key=%q, value=\"%v\", failed %q validation", path, e.Value(), e.ActualTag()))
	}
	return errors.NewValidation("invalid schema: %s", strings.Join(msgs, "; "))
}
