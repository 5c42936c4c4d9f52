package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/student-profiles/internal/apperror"
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole package.
var validate = func() *validator.Validate {
	v := validator.New()
	// Report JSON names ("newPassword"), not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// validationMessages maps "<field>.<tag>" to the message shown to clients.
// Unlisted combinations fall back to a generic message.
var validationMessages = map[string]string{
	"name.required":            "Name is required",
	"status.oneof":             "Status must be active or inactive",
	"editPassword.min":         "Edit password must be at least 3 characters",
	"editPassword.max":         "Edit password must be at most 50 characters",
	"editPassword.alphanum":    "Edit password may only contain letters and numbers",
	"currentPassword.required": "Current password is required",
	"newPassword.required":     "New password is required",
	"newPassword.min":          "New password must be at least 6 characters",
	"newPassword.max":          "New password must be at most 72 characters",
	"newPassword.nefield":      "New password must be different from the current password",
}

// checkStruct runs validator tags on v and converts the first failure into
// an apperror validation error.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("", "Invalid request")
	}

	fe := fieldErrs[0]
	msg, ok := validationMessages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = "Invalid value for " + fe.Field()
	}
	return apperror.ValidationFailed(fe.Field(), msg)
}

// fieldRules are the validator tags for student fields that have rules.
// Fields are checked in this order so the reported error is deterministic.
var fieldRules = []struct {
	field string
	tag   string
}{
	{"name", "required"},
	{"status", "oneof=active inactive"},
	{"editPassword", "min=3,max=50,alphanum"},
}

// checkFields validates the rule-bearing entries present in values. Absent
// keys are not checked, which is what a partial update needs.
func checkFields(values map[string]string) error {
	for _, rule := range fieldRules {
		value, ok := values[rule.field]
		if !ok {
			continue
		}

		err := validate.Var(value, rule.tag)
		if err == nil {
			continue
		}

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			if msg, ok := validationMessages[rule.field+"."+fieldErrs[0].Tag()]; ok {
				return apperror.ValidationFailed(rule.field, msg)
			}
		}
		return apperror.ValidationFailed(rule.field, "Invalid value for "+rule.field)
	}
	return nil
}
