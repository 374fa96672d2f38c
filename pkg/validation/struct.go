package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// now is the clock used by the minage tag.
	now = time.Now
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "code", func(fl validator.FieldLevel) bool {
			return IsCode(fl.Field().String())
		})
		mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
			return PasswordStrength(fl.Field().String()) != StrengthWeak
		})
		mustRegister(v, "minage", minAge)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// minAge validates a birthdate field (time.Time or YYYY-MM-DD string) against
// the tag parameter in years. Empty values pass; pair with required.
func minAge(fl validator.FieldLevel) bool {
	years, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	var birth time.Time
	switch v := fl.Field().Interface().(type) {
	case time.Time:
		birth = v
	case string:
		if v == "" {
			return true
		}
		birth, err = time.Parse(time.DateOnly, v)
		if err != nil {
			return false
		}
	default:
		return false
	}
	if birth.IsZero() {
		return true
	}

	age, err := AgeFromBirthdate(birth, now())
	return err == nil && age >= years
}

// Struct validates s by its `validate` tags and returns FieldErrors keyed by
// the json field names.
func Struct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := FieldErrors{}
	for _, fieldErr := range verrs {
		fe.Add(fieldErr.Field(), message(fieldErr))
	}
	return fe
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid e-mail address"
	case "code":
		return "may only contain letters, digits, '_', '-' and '.'"
	case "strongpassword":
		return "is too weak"
	case "minage":
		return fmt.Sprintf("must be at least %s years ago", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	case "required_if":
		return "is required"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
