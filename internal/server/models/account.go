// Package models holds the server-side persisted entities.
package models

import "time"

// Challenge is an outstanding one-time secret together with the instant it
// stops being accepted. A secret and its expiry are always set and cleared
// together, which is why they live in one value.
type Challenge struct {
	Secret    string
	ExpiresAt time.Time
}

// ValidAt reports whether the challenge is still accepted at now. The
// expiry instant itself is already outside the window.
func (c *Challenge) ValidAt(now time.Time) bool {
	return c != nil && c.ExpiresAt.After(now)
}

// Account is the persisted record of one registered identity.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string

	// TwoFactor is non-nil only while a 2FA challenge is outstanding.
	TwoFactor *Challenge
	// Reset is non-nil only while a password reset is outstanding.
	Reset *Challenge

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetTwoFactor attaches a fresh 2FA challenge, superseding any previous one.
func (a *Account) SetTwoFactor(code string, expiresAt time.Time) {
	a.TwoFactor = &Challenge{Secret: code, ExpiresAt: expiresAt}
}

func (a *Account) ClearTwoFactor() {
	a.TwoFactor = nil
}

// SetReset attaches a fresh reset challenge, superseding any previous one.
func (a *Account) SetReset(token string, expiresAt time.Time) {
	a.Reset = &Challenge{Secret: token, ExpiresAt: expiresAt}
}

func (a *Account) ClearReset() {
	a.Reset = nil
}

// Clone returns a deep copy so stores never share challenge pointers with
// callers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.TwoFactor != nil {
		tf := *a.TwoFactor
		c.TwoFactor = &tf
	}
	if a.Reset != nil {
		r := *a.Reset
		c.Reset = &r
	}
	return &c
}
