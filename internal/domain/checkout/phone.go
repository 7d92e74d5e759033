package checkout

import (
	"regexp"
	"strings"

	"github.com/go-faster/errors"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized to a
// Kenyan mobile number.
var ErrInvalidPhone = errors.New("invalid phone number: expected 07XXXXXXXX or 2547XXXXXXXX")

// kenyanMobile matches a fully normalized Kenyan mobile number: the 254
// country code, the mobile prefix 7, then 8 digits.
var kenyanMobile = regexp.MustCompile(`^2547\d{8}$`)

// NormalizePhone strips all non-digit characters and rewrites local prefixes
// to the international form: a leading 0 becomes 254, a bare leading 7 gets
// 254 prefixed. The result must match 2547 followed by 8 digits.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case strings.HasPrefix(digits, "7"):
		digits = "254" + digits
	}

	if !kenyanMobile.MatchString(digits) {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
