package models

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Prepare fills defaults on v and validates it. The first failing field is
// reported as a ValidationError.
func Prepare(ctx context.Context, v interface{}) error {
	if err := defaults.Set(v); err != nil {
		return NewValidationError("", err.Error())
	}
	if err := validate.StructCtx(ctx, v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			reason := "failed " + fe.Tag()
			if fe.Param() != "" {
				reason += "=" + fe.Param()
			}
			return NewValidationError(fieldPath(fe.Namespace()), reason)
		}
		return NewValidationError("", err.Error())
	}
	return nil
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
