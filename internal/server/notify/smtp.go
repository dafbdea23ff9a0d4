package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/wneessen/go-mail"
)

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Secure selects implicit TLS (usually port 465); otherwise STARTTLS is
	// used when the server offers it.
	Secure bool
	From   string
}

// SMTPSink sends mail through one reusable go-mail client. It is built once
// at startup and shared by all dispatcher workers.
type SMTPSink struct {
	mu     sync.Mutex
	client *mail.Client
	from   string
}

func NewSMTPSink(cfg SMTPConfig) (*SMTPSink, error) {
	var opts []mail.Option
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	// last, so no TLS option can reset it
	opts = append(opts, mail.WithPort(cfg.Port))

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSink{client: client, from: cfg.From}, nil
}

func (s *SMTPSink) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
