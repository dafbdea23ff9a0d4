package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errCodeRequired = errors.New("no 2FA code entered, use 'verify' to enter it later")

// Signup prompts for the profile fields and a password, creates the account
// and continues with the 2FA prompt.
func (a *App) Signup(ctx context.Context) error {
	var req client.SignupRequest
	var err error

	if req.FirstName, err = getSimpleText(a.reader, "Enter first name", a.out); err != nil {
		return err
	}
	if req.LastName, err = getSimpleText(a.reader, "Enter last name", a.out); err != nil {
		return err
	}
	if req.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	pending, err := a.api.Signup(ctx, req)
	if err != nil {
		return err
	}

	a.startPending(pending)
	return a.promptCode(ctx)
}

// Login checks email and password and continues with the 2FA prompt. The
// session is only established once the code is verified.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pending, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.startPending(pending)
	return a.promptCode(ctx)
}

// Verify enters a 2FA code for the pending email, asking for the email
// first when nothing is pending.
func (a *App) Verify(ctx context.Context) error {
	if a.pendingEmail == "" {
		email, err := getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
		a.pendingEmail = email
	}
	return a.promptCode(ctx)
}

func (a *App) startPending(p *client.Pending) {
	a.userName = ""
	a.pendingEmail = p.Email
	fmt.Fprintf(a.out, "%s. A code was sent to %s\n", p.Message, p.Email)
}

func (a *App) promptCode(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter 2FA code", a.out)
	if err != nil {
		return err
	}
	if code == "" {
		return errCodeRequired
	}

	session, err := a.api.VerifyTwoFactor(ctx, a.pendingEmail, code)
	if err != nil {
		return err
	}

	a.pendingEmail = ""
	a.userName = session.User.Email
	fmt.Fprintf(a.out, "Welcome, %s %s!\n", session.User.FirstName, session.User.LastName)
	return nil
}

// Forgot requests a password reset link.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	msg, err := a.api.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Reset sets a new password using the token from the reset link.
func (a *App) Reset(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	msg, err := a.api.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Me prints the profile of the logged in account. An expired session logs
// the user out.
func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.Logout(ctx)
		}
		return err
	}

	fmt.Fprintf(a.out, "id:    %s\nname:  %s %s\nemail: %s\n", u.ID, u.FirstName, u.LastName, u.Email)
	return nil
}

// Logout drops the in-memory session token.
func (a *App) Logout(_ context.Context) error {
	a.api.Logout()
	a.userName = ""
	return nil
}
