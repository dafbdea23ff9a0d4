package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const defaultTimeout = 10 * time.Second

type HTTPClient struct {
	baseURL string
	timeout time.Duration
	token   string
}

// NewHTTPClient returns a client for the API rooted at baseURL, for example
// "http://127.0.0.1:5001". A non-positive timeout selects the default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// Token returns the session token, or "" when not logged in.
func (c *HTTPClient) Token() string {
	return c.token
}

// Logout forgets the session token. The server keeps no session state.
func (c *HTTPClient) Logout() {
	c.token = ""
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, fiber.MethodGet, "/api/health", nil, nil, false)
}

func (c *HTTPClient) Signup(ctx context.Context, req SignupRequest) (*Pending, error) {
	var resp Pending
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/signup", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*Pending, error) {
	var resp Pending
	req := credentialsRequest{Email: email, Password: string(password)}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyTwoFactor submits the emailed code. On success the returned token
// is kept for later authenticated calls.
func (c *HTTPClient) VerifyTwoFactor(ctx context.Context, email, code string) (*Session, error) {
	var resp Session
	req := verifyRequest{Email: email, Code: code}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/2fa/verify", req, &resp, false); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// ForgotPassword asks for a reset link. The server answers the same way
// whether or not the account exists, so only its message is returned.
func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/forgot-password", emailRequest{Email: email}, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token string, password []byte) (string, error) {
	var resp messageResponse
	req := resetRequest{Token: token, Password: string(password)}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/reset-password", req, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Me returns the profile of the logged in account.
func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := c.do(ctx, fiber.MethodGet, "/api/auth/me", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// do sends one request and decodes a 2xx JSON answer into out. Any other
// status becomes an *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any, authenticated bool) error {
	if authenticated && c.token == "" {
		return ErrNotLoggedIn
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if in != nil {
		a.JSON(in)
	}
	if authenticated {
		a.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("build request: %w", err)
	}
	a.Timeout(c.timeoutFor(ctx))

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
	}

	if code < 200 || code > 299 {
		return decodeError(code, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// timeoutFor never outlives the context deadline.
func (c *HTTPClient) timeoutFor(ctx context.Context) time.Duration {
	t := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < t {
			t = max(left, time.Millisecond)
		}
	}
	return t
}

func decodeError(code int, body []byte) error {
	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Message == "" {
		resp.Message = utils.StatusMessage(code)
	}
	return &APIError{Status: code, Message: resp.Message, Fields: resp.Errors}
}
