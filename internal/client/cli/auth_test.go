package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// stubInputs answers getSimpleText prompts from texts, in order, and
// getPassword with password.
func stubInputs(t *testing.T, password []byte, texts ...string) *[]string {
	t.Helper()
	var prompts []string
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		prompts = append(prompts, prompt)
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
	return &prompts
}

type fakeAPI struct {
	// canned answers
	pendingEmail  string
	sessionUser   client.User
	forgotMessage string

	healthErr error
	signupErr error
	loginErr  error
	verifyErr error
	resetErr  error
	meErr     error

	// recorded arguments
	signupReq    client.SignupRequest
	loginEmail   string
	loginPass    string
	verifyEmail  string
	verifyCode   string
	forgotEmail  string
	resetToken   string
	resetPass    string
	logoutCalled bool
}

func (f *fakeAPI) Health(context.Context) error { return f.healthErr }

func (f *fakeAPI) Signup(_ context.Context, req client.SignupRequest) (*client.Pending, error) {
	f.signupReq = req
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &client.Pending{Message: "Signup successful, 2FA required", Email: f.pendingEmail, TwoFARequired: true}, nil
}

func (f *fakeAPI) Login(_ context.Context, email string, password []byte) (*client.Pending, error) {
	f.loginEmail, f.loginPass = email, string(password)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &client.Pending{Message: "2FA required", Email: f.pendingEmail, TwoFARequired: true}, nil
}

func (f *fakeAPI) VerifyTwoFactor(_ context.Context, email, code string) (*client.Session, error) {
	f.verifyEmail, f.verifyCode = email, code
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &client.Session{Message: "2FA verified", Token: "tok", User: f.sessionUser}, nil
}

func (f *fakeAPI) ForgotPassword(_ context.Context, email string) (string, error) {
	f.forgotEmail = email
	return f.forgotMessage, nil
}

func (f *fakeAPI) ResetPassword(_ context.Context, token string, password []byte) (string, error) {
	f.resetToken, f.resetPass = token, string(password)
	if f.resetErr != nil {
		return "", f.resetErr
	}
	return "Password has been reset", nil
}

func (f *fakeAPI) Me(context.Context) (*client.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	u := f.sessionUser
	return &u, nil
}

func (f *fakeAPI) Logout() { f.logoutCalled = true }

func newTestApp(f *fakeAPI) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{config: &config.Config{ServerURL: "http://test"}, api: f, out: &out}, &out
}

var ann = client.User{ID: "u1", FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}

func TestSignup_ThenCode(t *testing.T) {
	f := &fakeAPI{pendingEmail: "ann@example.com", sessionUser: ann}
	a, out := newTestApp(f)
	prompts := stubInputs(t, []byte("pw1"), "Ann", "Lee", "Ann@Example.com", "123456")

	require.NoError(t, a.Signup(context.Background()))

	assert.Equal(t, client.SignupRequest{FirstName: "Ann", LastName: "Lee", Email: "Ann@Example.com", Password: "pw1"}, f.signupReq)
	assert.Equal(t, "ann@example.com", f.verifyEmail, "code is verified against the normalized email")
	assert.Equal(t, "123456", f.verifyCode)
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(ann@example.com)", a.getStatus())
	assert.Contains(t, out.String(), "Welcome, Ann Lee!")
	assert.Equal(t, []string{"Enter first name", "Enter last name", "Enter email", "Enter 2FA code"}, *prompts)
}

func TestLogin_WipesPassword(t *testing.T) {
	f := &fakeAPI{pendingEmail: "ann@example.com", sessionUser: ann}
	a, _ := newTestApp(f)
	pw := []byte("secret")
	stubInputs(t, pw, "ann@example.com", "654321")

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, "secret", f.loginPass)
	assert.Equal(t, make([]byte, len(pw)), pw, "password must be wiped")
	assert.True(t, a.isLoggedIn())
}

func TestLogin_SkippedCodeLeavesPending(t *testing.T) {
	f := &fakeAPI{pendingEmail: "ann@example.com", sessionUser: ann}
	a, _ := newTestApp(f)
	stubInputs(t, []byte("pw"), "ann@example.com", "")

	err := a.Login(context.Background())

	require.ErrorIs(t, err, errCodeRequired)
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "(2fa pending: ann@example.com)", a.getStatus())

	stubInputs(t, nil, "111222")
	require.NoError(t, a.Verify(context.Background()))
	assert.Equal(t, "ann@example.com", f.verifyEmail)
	assert.Equal(t, "111222", f.verifyCode)
	assert.True(t, a.isLoggedIn())
}

func TestLogin_RejectedKeepsState(t *testing.T) {
	f := &fakeAPI{loginErr: &client.APIError{Status: 401, Message: "Invalid credentials"}}
	a, _ := newTestApp(f)
	a.userName = "bob@example.com"
	stubInputs(t, []byte("pw"), "ann@example.com")

	err := a.Login(context.Background())

	require.EqualError(t, err, "Invalid credentials")
	assert.Equal(t, "bob@example.com", a.userName)
	assert.Empty(t, f.verifyCode)
}

func TestVerify_AsksEmailWhenNothingPending(t *testing.T) {
	f := &fakeAPI{verifyErr: &client.APIError{Status: 400, Message: "Invalid 2FA code"}}
	a, _ := newTestApp(f)
	prompts := stubInputs(t, nil, "ann@example.com", "000000")

	err := a.Verify(context.Background())

	require.EqualError(t, err, "Invalid 2FA code")
	assert.Equal(t, []string{"Enter email", "Enter 2FA code"}, *prompts)
	assert.Equal(t, "ann@example.com", a.pendingEmail, "pending email survives a wrong code")
}

func TestForgotAndReset(t *testing.T) {
	f := &fakeAPI{forgotMessage: "If the email exists, a reset link will be sent"}
	a, out := newTestApp(f)

	stubInputs(t, nil, "ann@example.com")
	require.NoError(t, a.Forgot(context.Background()))
	assert.Equal(t, "ann@example.com", f.forgotEmail)
	assert.Contains(t, out.String(), "If the email exists")

	pw := []byte("newpw")
	stubInputs(t, pw, "abc123")
	require.NoError(t, a.Reset(context.Background()))
	assert.Equal(t, "abc123", f.resetToken)
	assert.Equal(t, "newpw", f.resetPass)
	assert.Equal(t, make([]byte, 5), pw)
	assert.Contains(t, out.String(), "Password has been reset")
}

func TestReset_Error(t *testing.T) {
	f := &fakeAPI{resetErr: errors.New("Invalid or expired token")}
	a, _ := newTestApp(f)
	stubInputs(t, []byte("pw"), "stale")

	require.EqualError(t, a.Reset(context.Background()), "Invalid or expired token")
}

func TestMe(t *testing.T) {
	f := &fakeAPI{sessionUser: ann}
	a, out := newTestApp(f)
	a.userName = ann.Email

	require.NoError(t, a.Me(context.Background()))
	assert.True(t, strings.Contains(out.String(), "email: ann@example.com"))
}

func TestMe_UnauthorizedLogsOut(t *testing.T) {
	f := &fakeAPI{meErr: &client.APIError{Status: 401, Message: "Unauthorized"}}
	a, _ := newTestApp(f)
	a.userName = ann.Email

	err := a.Me(context.Background())

	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.True(t, f.logoutCalled)
	assert.False(t, a.isLoggedIn())
}

func TestLogout(t *testing.T) {
	f := &fakeAPI{}
	a, _ := newTestApp(f)
	a.userName = ann.Email

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, f.logoutCalled)
	assert.Empty(t, a.getStatus())
}

func TestRun_ReportsUnreachableServer(t *testing.T) {
	captureOutput(t)
	f := &fakeAPI{healthErr: client.ErrUnavailable}
	a, out := newTestApp(f)
	a.reader = bufio.NewReader(strings.NewReader("exit\n"))

	a.Run(context.Background())

	assert.Contains(t, out.String(), "Server http://test is not reachable")
}
