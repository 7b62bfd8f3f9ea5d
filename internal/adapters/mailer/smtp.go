// internal/adapters/mailer/smtp.go
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"aircnc/internal/adapters/observability"
	"aircnc/internal/domain"
)

// SMTP submits one message per Send over a fresh relay connection.
type SMTP struct {
	from string
	dial func() (gomail.SendCloser, error)
}

func NewSMTP(host string, port int, user, pass, from string) (*SMTP, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	d := gomail.NewDialer(host, port, user, pass)
	return &SMTP{from: from, dial: d.Dial}, nil
}

// NewWithDialer is used by tests to capture outgoing messages.
func NewWithDialer(from string, dial func() (gomail.SendCloser, error)) *SMTP {
	return &SMTP{from: from, dial: dial}
}

func (s *SMTP) Send(ctx context.Context, m domain.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)

	// gomail has no context support; the dial itself is bounded by its own timeout.
	done := make(chan error, 1)
	start := time.Now()
	go func() {
		sc, err := s.dial()
		if err != nil {
			done <- fmt.Errorf("smtp dial: %w", err)
			return
		}
		defer sc.Close()
		done <- gomail.Send(sc, msg)
	}()

	select {
	case <-ctx.Done():
		observability.ObserveExternal("smtp", "send", 0, time.Since(start))
		return ctx.Err()
	case err := <-done:
		status := 250
		if err != nil {
			status = 554
		}
		observability.ObserveExternal("smtp", "send", status, time.Since(start))
		return err
	}
}

// Log stands in for the relay in development; it never fails.
type Log struct{}

func (Log) Send(_ context.Context, m domain.Mail) error {
	log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("mail (log only)")
	return nil
}
