package services

import (
	"fmt"
	"html"
	"net/url"

	"github.com/dmitrijs2005/gophauth/internal/server/notify"
)

// Notification kinds, used as log and metric labels.
const (
	KindTwoFactor     = "two_factor"
	KindPasswordReset = "password_reset"
)

func twoFactorMessage(to, code string) notify.Message {
	return notify.Message{
		Kind:    KindTwoFactor,
		To:      to,
		Subject: "Your 2FA Code",
		Text:    fmt.Sprintf("Your verification code is %s", code),
		HTML:    fmt.Sprintf("<p>Your verification code is <b>%s</b>. It expires in 5 minutes.</p>", html.EscapeString(code)),
	}
}

func resetMessage(to, link string) notify.Message {
	escaped := html.EscapeString(link)
	return notify.Message{
		Kind:    KindPasswordReset,
		To:      to,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Reset your password: %s", link),
		HTML:    fmt.Sprintf(`<p>Click to reset your password: <a href="%s">%s</a></p>`, escaped, escaped),
	}
}

// resetLink appends the token to base as the "token" query parameter,
// keeping any query base already has.
func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("reset url base: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
