// Package auth verifies time-windowed shared-secret proofs.
//
// A proof is the pair (hash, utc) where hash is the lowercase hex SHA-256 of
// "{utc}|{secret}". Replay inside the window is not tracked.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// DefaultWindow is how far utc may drift from the server clock, in either direction.
const DefaultWindow = 60 * time.Second

var (
	// ErrMisconfigured is returned when no secret is configured server-side.
	ErrMisconfigured = errors.New("auth: server secret not configured")
	// ErrExpired is returned when the proof timestamp is outside the window.
	ErrExpired = errors.New("auth: time mismatch")
	// ErrBadSecret is returned when the hash does not match.
	ErrBadSecret = errors.New("auth: invalid password")
)

// Digest returns the expected proof hash for utc and secret.
func Digest(utc int64, secret string) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(utc, 10) + "|" + secret))
	return hex.EncodeToString(sum[:])
}

// Validate checks a proof against secret at now. Checks run in a fixed order:
// missing secret, then the time window, then the hash.
func Validate(hash string, utc int64, secret string, now time.Time, window time.Duration) error {
	if secret == "" {
		return ErrMisconfigured
	}
	// Compare against bounds; subtracting an attacker-chosen utc can overflow.
	n, w := now.Unix(), int64(window/time.Second)
	if utc < n-w || utc > n+w {
		return ErrExpired
	}
	want := Digest(utc, secret)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(want)) != 1 {
		return ErrBadSecret
	}
	return nil
}

// Validator binds the shared secret and clock at process start.
type Validator struct {
	Secret string
	Window time.Duration
	Now    func() time.Time
}

// NewValidator returns a Validator using the wall clock and DefaultWindow when window is zero.
func NewValidator(secret string, window time.Duration) *Validator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Validator{Secret: secret, Window: window, Now: time.Now}
}

// Check validates a proof against the bound secret.
func (v *Validator) Check(hash string, utc int64) error {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	window := v.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return Validate(hash, utc, v.Secret, now(), window)
}
