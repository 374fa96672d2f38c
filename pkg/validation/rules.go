// Package validation implements the console's input rules: required
// fields, e-mail format, password strength and age from birthdate, plus
// struct validation of request DTOs.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

// FieldErrors maps a field name to the reason it was rejected.
type FieldErrors map[string]string

// Error implements the error interface with fields in sorted order.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Err returns fe as an error, or nil when empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Required checks that every named value is non-blank.
func Required(fields map[string]string) error {
	fe := FieldErrors{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			fe.Add(name, "is required")
		}
	}
	return fe.Err()
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsEmail reports whether s looks like an e-mail address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

// IsCode reports whether s is a valid role/workgroup code.
func IsCode(s string) bool {
	return codePattern.MatchString(s)
}

// Strength grades a password.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthStrong:
		return "strong"
	case StrengthMedium:
		return "medium"
	default:
		return "weak"
	}
}

// MinPasswordLength is the shortest password that can grade above weak.
const MinPasswordLength = 8

// PasswordStrength grades p by length and character classes. Anything under
// MinPasswordLength is weak; three classes is medium; all four classes with
// 12 or more characters is strong.
func PasswordStrength(p string) Strength {
	if len([]rune(p)) < MinPasswordLength {
		return StrengthWeak
	}

	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			classes++
		}
	}

	switch {
	case classes == 4 && len([]rune(p)) >= 12:
		return StrengthStrong
	case classes >= 3:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

// ValidatePassword rejects weak passwords.
func ValidatePassword(p string) error {
	if PasswordStrength(p) == StrengthWeak {
		return FieldErrors{"password": fmt.Sprintf(
			"too weak: use at least %d characters mixing upper case, lower case, digits and symbols",
			MinPasswordLength)}
	}
	return nil
}

// AgeFromBirthdate returns the whole years between birth and now. A birthday
// not yet reached in now's year does not count.
func AgeFromBirthdate(birth, now time.Time) (int, error) {
	if birth.IsZero() {
		return 0, fmt.Errorf("birthdate is required")
	}
	if birth.After(now) {
		return 0, fmt.Errorf("birthdate %s is in the future", birth.Format(time.DateOnly))
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, nil
}
