package mfa

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// secretSize is the HOTP key length in bytes (RFC 4226 recommends 160 bits).
const secretSize = 20

var passcodeOpts = hotp.ValidateOpts{
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// NewDeviceSecret returns a random base32 HOTP key for a new OTP device.
func NewDeviceSecret() (string, error) {
	b := make([]byte, secretSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

// Passcode returns the 6-digit passcode for secret at counter.
func Passcode(secret string, counter uint64) (string, error) {
	return hotp.GenerateCodeCustom(secret, counter, passcodeOpts)
}

// PasscodeMatches reports whether passcode is the code for secret at counter.
// Malformed input is a mismatch. The comparison is constant-time.
func PasscodeMatches(passcode, secret string, counter uint64) bool {
	ok, err := hotp.ValidateCustom(NormalizePasscode(passcode), counter, secret, passcodeOpts)
	return err == nil && ok
}

// NormalizePasscode strips surrounding and embedded spaces users tend to type ("123 456").
func NormalizePasscode(passcode string) string {
	return strings.ReplaceAll(strings.TrimSpace(passcode), " ", "")
}
