// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is a single failed field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	code    activity.Code
	message string
}

// Field returns the JSON name of the field that failed validation.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the parameter of the tag (e.g. "100" for "max=100").
func (e *ValidationError) Param() string { return e.param }

// Value returns the rejected value.
func (e *ValidationError) Value() interface{} { return e.value }

// Code returns the wire code of the failure.
func (e *ValidationError) Code() activity.Code { return e.code }

// Error returns a human-readable error message.
func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects the failures of one struct.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual failures.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error joins all failure messages.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ToResult converts the failures into a wire result. The code is the one
// of the first failure; the message lists every failure.
func (ve *RequestValidationError) ToResult() activity.Result {
	if len(ve.errors) == 0 {
		return activity.Fail(activity.ValidationError, "validation failed")
	}
	return activity.Fail(ve.errors[0].code, ve.Error())
}

// GetValidator returns the shared validator with the chat validators
// registered:
//
//	userid       numeric user id
//	banduration  \d+[smhd], e.g. "30m", "7d"
//	aclscope     room | channel
//
// Field names in errors are the json tag names.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("userid", validateUserID)
		_ = validate.RegisterValidation("banduration", validateBanDuration)
		_ = validate.RegisterValidation("aclscope", validateACLScope)
	})
	return validate
}

func validateUserID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func validateBanDuration(fl validator.FieldLevel) bool {
	_, err := models.ParseBanDuration(fl.Field().String())
	return err == nil
}

func validateACLScope(fl validator.FieldLevel) bool {
	switch models.ACLScope(fl.Field().String()) {
	case models.ScopeRoom, models.ScopeChannel:
		return true
	}
	return false
}

// ValidateStruct validates s (a struct or pointer to one). It returns nil
// when s is valid.
//
// A field may carry a `code` tag naming the wire code reported when its
// validation fails, e.g.
//
//	RoomID string `json:"room_id" validate:"required" code:"MISSING_TARGET_ID"`
//
// Fields without one report VALIDATION_ERROR, except failures of the
// banduration validator which report INVALID_BAN_DURATION.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{
				field:   "unknown",
				tag:     "unknown",
				code:    activity.ValidationError,
				message: err.Error(),
			}},
		}
	}

	codes := fieldCodes(s)
	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		code, ok := codes[fieldErr.StructField()]
		if !ok {
			code = defaultCode(fieldErr.Tag())
		}
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			code:    code,
			message: translateError(fieldErr),
		}
	}
	return &RequestValidationError{errors: fieldErrors}
}

func defaultCode(tag string) activity.Code {
	switch tag {
	case "banduration":
		return activity.InvalidBanDuration
	case "aclscope":
		return activity.InvalidTargetType
	default:
		return activity.ValidationError
	}
}

var codesByName = func() map[string]activity.Code {
	out := map[string]activity.Code{}
	for c := activity.Code(200); c < 900; c++ {
		if name := c.String(); !strings.HasPrefix(name, "CODE_") {
			out[name] = c
		}
	}
	return out
}()

// fieldCodes reads the code tags of the top-level fields of s.
func fieldCodes(s interface{}) map[string]activity.Code {
	t := reflect.TypeOf(s)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	out := map[string]activity.Code{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := f.Tag.Get("code"); name != "" {
			if code, ok := codesByName[name]; ok {
				out[f.Name] = code
			}
		}
	}
	return out
}

var errorMessageTemplates = map[string]string{
	"required":    "%s is required",
	"base64":      "%s must be base64 encoded",
	"userid":      "%s must be a numeric user id",
	"banduration": "%s must look like 30s, 10m, 1h or 7d",
	"aclscope":    "%s must be room or channel",
	"uuid":        "%s must be a uuid",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Map:
		unit = " items"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
