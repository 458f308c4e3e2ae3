// Package session models the admin login handshake as a closed set of states
// and persists the current state server-side.
package session

import (
	"crypto/subtle"
	"errors"
	"time"
)

var (
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPMismatch = errors.New("otp mismatch")
)

// State is one of Anonymous, AwaitingOTP or Authenticated.
type State interface {
	isState()
}

// Anonymous has no identity attached.
type Anonymous struct{}

// AwaitingOTP has passed the password check and waits for the mailed code.
type AwaitingOTP struct {
	UserID   int64
	Code     string
	IssuedAt time.Time
}

// Authenticated can only be produced by AwaitingOTP.Verify or by loading a
// stored session, so holding one proves the handshake completed.
type Authenticated struct {
	userID int64
}

func (Anonymous) isState()     {}
func (AwaitingOTP) isState()   {}
func (Authenticated) isState() {}

// Challenge starts the second factor for userID with the code that was mailed.
func (Anonymous) Challenge(userID int64, code string, now time.Time) AwaitingOTP {
	return AwaitingOTP{UserID: userID, Code: code, IssuedAt: now}
}

// Expired reports whether the code is older than ttl at now.
func (a AwaitingOTP) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(a.IssuedAt) > ttl
}

// Verify checks code. An expired challenge falls back to Anonymous whatever
// the code, a wrong code keeps the challenge, a matching code authenticates.
func (a AwaitingOTP) Verify(code string, now time.Time, ttl time.Duration) (State, error) {
	if a.Expired(now, ttl) {
		return Anonymous{}, ErrOTPExpired
	}
	if a.Code == "" || subtle.ConstantTimeCompare([]byte(a.Code), []byte(code)) != 1 {
		return a, ErrOTPMismatch
	}
	return Authenticated{userID: a.UserID}, nil
}

func (a Authenticated) UserID() int64 {
	return a.userID
}

func (Authenticated) Logout() Anonymous {
	return Anonymous{}
}

// IsAuthenticated reports whether s is Authenticated.
func IsAuthenticated(s State) bool {
	_, ok := s.(Authenticated)
	return ok
}
