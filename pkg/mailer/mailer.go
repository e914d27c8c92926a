// Package mailer abstracts outbound email so the invitation flow stays
// independent of the delivery provider.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"notus/pkg/logger"
)

// SendTimeout bounds a single delivery attempt. On timeout the caller gives
// up rather than retrying.
const SendTimeout = 5 * time.Second

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP delivers through a plain SMTP relay.
type SMTP struct {
	Addr string // host:port
	From string
}

func NewSMTP(host, port, from string) *SMTP {
	return &SMTP{Addr: host + ":" + port, From: from}
}

func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.From, to, subject, body))

	// net/smtp has no context support; run the send in a goroutine and bail
	// on the deadline so a stuck relay cannot hold the request.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.Addr, nil, m.From, []string{to}, msg)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogOnly prints the mail instead of sending it; used in development when no
// relay is configured.
type LogOnly struct{}

func (LogOnly) Send(_ context.Context, to, subject, body string) error {
	logger.Sugar.Infof("Mail to %s: %s\n%s", to, subject, body)
	return nil
}
