// Package phone normalizes and formats the recipient number typed by the user.
package phone

import (
	"errors"
	"fmt"
	"strings"
)

// MinDigits is the shortest number the automation accepts.
const MinDigits = 10

var ErrInvalidPhone = errors.New("invalid phone number")

// Digits strips everything that is not an ASCII digit.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether raw carries at least MinDigits digits.
func Valid(raw string) bool {
	return len(Digits(raw)) >= MinDigits
}

// Format punctuates the digits of raw progressively as they are typed:
// "555", "(555) 12", "(555) 123-4567". Digits past the tenth are dropped.
func Format(raw string) string {
	d := Digits(raw)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return fmt.Sprintf("(%s) %s", d[:3], d[3:])
	default:
		end := min(len(d), 10)
		return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:end])
	}
}

// E164 turns a national or international number into +<digits>. Ten digit
// numbers get countryCode prepended.
func E164(raw, countryCode string) (string, error) {
	d := Digits(raw)
	if len(d) < MinDigits {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	if len(d) == MinDigits && countryCode != "" {
		d = Digits(countryCode) + d
	}
	if len(d) > 15 {
		return "", fmt.Errorf("%w: %q has more than 15 digits", ErrInvalidPhone, raw)
	}
	return "+" + d, nil
}
