// internal/channel/email.go
package channel

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/outreach"
)

// Email delivers rendered messages over SMTP.
type Email struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Limit    int

	// SendMail is swappable in tests; smtp.SendMail when nil.
	SendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (e *Email) Name() string { return "email" }

func (e *Email) Ready() error {
	if e.Host == "" || e.From == "" {
		return appErrors.NewMissingCredentials("email")
	}
	return nil
}

func (e *Email) DefaultLimit() int {
	if e.Limit > 0 {
		return e.Limit
	}
	return 200
}

func (e *Email) Address(c *model.Contact) string { return c.Handle }

func (e *Email) Validate(c *model.Contact) error {
	if !strings.Contains(c.Handle, "@") {
		return appErrors.NewInvalidAddress(c.Handle)
	}
	return nil
}

func (e *Email) Send(ctx context.Context, c *model.Contact, body, subject string) (*outreach.SendResult, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", e.From, c.Handle, subject, body)

	var auth smtp.Auth
	if e.Username != "" {
		auth = smtp.PlainAuth("", e.Username, e.Password, e.Host)
	}

	sendMail := e.SendMail
	if sendMail == nil {
		sendMail = smtp.SendMail
	}

	addr := fmt.Sprintf("%s:%d", e.Host, e.Port)
	if err := sendMail(addr, auth, e.From, []string{c.Handle}, []byte(msg)); err != nil {
		return nil, err
	}
	return &outreach.SendResult{}, nil
}

var _ outreach.Channel = (*Email)(nil)
