package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallenge_ValidAt(t *testing.T) {
	exp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &Challenge{Secret: "123456", ExpiresAt: exp}

	assert.True(t, c.ValidAt(exp.Add(-time.Nanosecond)))
	assert.False(t, c.ValidAt(exp), "expiry instant is already expired")
	assert.False(t, c.ValidAt(exp.Add(time.Second)))

	var none *Challenge
	assert.False(t, none.ValidAt(exp))
}

func TestAccount_SetAndClear(t *testing.T) {
	a := &Account{ID: "a1"}
	exp := time.Now().Add(5 * time.Minute)

	a.SetTwoFactor("000123", exp)
	require.NotNil(t, a.TwoFactor)
	assert.Equal(t, "000123", a.TwoFactor.Secret)
	assert.Equal(t, exp, a.TwoFactor.ExpiresAt)

	a.SetTwoFactor("999999", exp.Add(time.Minute))
	assert.Equal(t, "999999", a.TwoFactor.Secret, "new code supersedes old one")

	a.ClearTwoFactor()
	assert.Nil(t, a.TwoFactor)

	a.SetReset("tok", exp)
	require.NotNil(t, a.Reset)
	a.ClearReset()
	assert.Nil(t, a.Reset)
}

func TestAccount_CloneIsDeep(t *testing.T) {
	a := &Account{ID: "a1", Email: "a@x.com"}
	a.SetTwoFactor("111111", time.Now())
	a.SetReset("tok", time.Now())

	c := a.Clone()
	c.TwoFactor.Secret = "222222"
	c.Reset.Secret = "other"
	c.Email = "b@x.com"

	assert.Equal(t, "111111", a.TwoFactor.Secret)
	assert.Equal(t, "tok", a.Reset.Secret)
	assert.Equal(t, "a@x.com", a.Email)

	var nilAcc *Account
	assert.Nil(t, nilAcc.Clone())
}
