package validation

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Shared rule bounds used by request structs and cross-field checks.
const (
	PasswordMinLength = 8

	FirstYearMinSubjects = 3
	FirstYearMaxSubjects = 5
	TeacherMaxSubjects   = 3
)

// Messages for rules that are checked outside struct tags.
const (
	MsgTaken                = "The %s has already been taken."
	MsgInvalidSelection     = "The selected %s is invalid."
	MsgPasswordConfirmation = "The password field confirmation does not match."
	MsgFirstYearMin         = "First-year students must select at least 3 subjects."
	MsgFirstYearMax         = "First-year students can select a maximum of 5 subjects."
	MsgTeacherSubjects      = "Teachers must be assigned at least one subject."
	MsgInvalidDate          = "The %s field must be a valid date."
	MsgInvalidBoolean       = "The %s field must be true or false."
	MsgInvalidInteger       = "The %s field must be an integer."
)

// Taken renders the uniqueness failure message for field.
func Taken(field string) string {
	return fmt.Sprintf(MsgTaken, field)
}

// InvalidSelection renders the message for a reference to a missing row.
func InvalidSelection(field string) string {
	return fmt.Sprintf(MsgInvalidSelection, field)
}

// messageFor turns one validator failure into a human message keyed on the
// json name of the field.
func messageFor(fe validator.FieldError, field string) string {
	isString := fe.Kind() == reflect.String
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "max":
		switch {
		case isString:
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
		case isList:
			return fmt.Sprintf("The %s field must not have more than %s items.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "min":
		switch {
		case isString:
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		case isList:
			return fmt.Sprintf("The %s field must have at least %s items.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "gt":
		return InvalidSelection(field)
	case "oneof":
		return InvalidSelection(field)
	case "datetime":
		return fmt.Sprintf("The %s field must match the format Y-m-d.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
