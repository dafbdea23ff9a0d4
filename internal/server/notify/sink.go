// Package notify delivers out-of-band messages (verification codes, reset
// links) off the request path.
package notify

import "context"

// Message is one outbound notification. Kind labels it for logs and metrics
// and never reaches the recipient.
type Message struct {
	Kind    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sink delivers a single message. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}
