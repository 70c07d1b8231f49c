package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator. Field names in reported
// errors are the json tag names.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		instance = v
	})
	return instance
}

// Struct validates s against its validate tags. Failures are returned as an
// *apperrors.ValidationError keyed by dotted field path, e.g.
// "attendances.0.student_id". Any other error is returned as is.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := apperrors.NewValidationError()
	for _, fe := range fieldErrs {
		key := FieldKey(fe.Namespace())
		verr.Add(key, messageFor(fe, key))
	}
	return verr
}

// FieldKey converts a validator namespace ("RecordAttendanceRequest.attendances[0].student_id")
// into a dotted request key ("attendances.0.student_id").
func FieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	r := strings.NewReplacer("[", ".", "]", "")
	return r.Replace(namespace)
}
