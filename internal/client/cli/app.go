package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// apiClient is the part of client.HTTPClient the commands use.
type apiClient interface {
	Health(ctx context.Context) error
	Signup(ctx context.Context, req client.SignupRequest) (*client.Pending, error)
	Login(ctx context.Context, email string, password []byte) (*client.Pending, error)
	VerifyTwoFactor(ctx context.Context, email, code string) (*client.Session, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token string, password []byte) (string, error)
	Me(ctx context.Context) (*client.User, error)
	Logout()
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader
	out    io.Writer

	// userName is set once a 2FA verification succeeds.
	userName string
	// pendingEmail is the address a 2FA code was last sent to.
	pendingEmail string
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    client.NewHTTPClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run checks that the server answers and then starts the REPL.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")
	if err := a.api.Health(ctx); err != nil {
		fmt.Fprintf(a.out, "Server %s is not reachable: %v\n", a.config.ServerURL, err)
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	switch {
	case a.userName != "":
		return fmt.Sprintf("(%s)", a.userName)
	case a.pendingEmail != "":
		return fmt.Sprintf("(2fa pending: %s)", a.pendingEmail)
	default:
		return ""
	}
}
