package roster

import (
	"math/rand"
	"strings"

	"github.com/ltessier/rostersync/core"
)

const (
	digits   = "0123456789"
	alphanum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// randIntn is mockable for deterministic password tests.
var randIntn = rand.Intn

// GeneratePassword produces a password under the configured policy.
//
// "initials" mode: prefix + first letter of each name (lowercase, diacritics
// folded; empty names yield empty initials) + N random digits + suffix,
// e.g. "CFAjd4821!*". "random" mode (and anything unrecognized): fixed-length
// alphanumeric. These credentials are operator-visible and short-lived by
// institutional convention; a CSPRNG is explicitly not required.
func GeneratePassword(firstname, surname string, policy core.PasswordConfig) string {
	if policy.Mode != "initials" {
		return randomString(alphanum, policy.RandomLength)
	}

	var initials strings.Builder
	if f := loginSegment(firstname); f != "" {
		initials.WriteByte(f[0])
	}
	if s := loginSegment(surname); s != "" {
		initials.WriteByte(s[0])
	}
	return policy.Prefix + initials.String() + randomString(digits, policy.DigitLength) + policy.Suffix
}

func randomString(charset string, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(charset[randIntn(len(charset))])
	}
	return b.String()
}
