// Package validate provides pure field validators for free-text USSD answers.
//
// Every validator is deterministic and side-effect free so it can be unit
// tested in isolation from the state machine.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// CountryPrefix is the Nigerian international dialing prefix.
const CountryPrefix = "234"

// normalizedPhoneDigits is the digit count of a normalized number: the
// country prefix plus a ten digit subscriber number.
const normalizedPhoneDigits = 13

// ErrInvalidPhoneFormat indicates a phone number that cannot be normalized
// to the +234 E.164 form.
var ErrInvalidPhoneFormat = errors.New("invalid phone number format")

// NormalizePhone standardizes a Nigerian phone number to E.164 form.
//
//	08012345678   -> +2348012345678
//	2348012345678 -> +2348012345678
//	+2348012345678 -> +2348012345678
//
// Normalization is idempotent: feeding the output back in yields the same
// result.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if strings.HasPrefix(cleaned, "0") {
		cleaned = CountryPrefix + cleaned[1:]
	}
	if !strings.HasPrefix(cleaned, CountryPrefix) {
		cleaned = CountryPrefix + cleaned
	}

	if len(cleaned) != normalizedPhoneDigits {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneFormat, phone)
	}
	return "+" + cleaned, nil
}
