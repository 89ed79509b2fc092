package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/xraph/lanes/job"
)

// EmailType is the job type handled by Email.
const EmailType = "email.send"

// EmailPayload is the payload of an email.send job. At least one of Text
// and HTML must be set.
type EmailPayload struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
}

// Email sends messages over SMTP, dialling once per job.
type Email struct {
	cfg SMTPConfig
}

// NewEmail creates an email handler.
func NewEmail(cfg SMTPConfig) *Email {
	return &Email{cfg: cfg}
}

// Definition returns the typed job definition for email.send.
func (e *Email) Definition(opts ...job.Option) *job.Definition[EmailPayload] {
	return job.NewDefinition(EmailType, e.Send, opts...)
}

// Send delivers p.
func (e *Email) Send(ctx context.Context, p EmailPayload) error {
	msg, err := e.Message(p)
	if err != nil {
		return err
	}

	opts := []mail.Option{mail.WithPort(e.cfg.Port)}
	if e.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(e.cfg.Username),
			mail.WithPassword(e.cfg.Password),
		)
	}
	if e.cfg.TLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}

	c, err := mail.NewClient(e.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("email: create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

// Message builds the MIME message for p without sending it.
func (e *Email) Message(p EmailPayload) (*mail.Msg, error) {
	if len(p.To) == 0 {
		return nil, errors.New("email: no recipients")
	}
	if p.Text == "" && p.HTML == "" {
		return nil, errors.New("email: empty body")
	}

	m := mail.NewMsg()
	if err := m.From(e.cfg.From); err != nil {
		return nil, fmt.Errorf("email: set from: %w", err)
	}
	if err := m.To(p.To...); err != nil {
		return nil, fmt.Errorf("email: set to: %w", err)
	}
	if len(p.Cc) > 0 {
		if err := m.Cc(p.Cc...); err != nil {
			return nil, fmt.Errorf("email: set cc: %w", err)
		}
	}
	// Strip CR/LF to prevent header injection.
	m.Subject(strings.NewReplacer("\r", "", "\n", "").Replace(p.Subject))

	switch {
	case p.Text != "" && p.HTML != "":
		m.SetBodyString(mail.TypeTextPlain, p.Text)
		m.AddAlternativeString(mail.TypeTextHTML, p.HTML)
	case p.HTML != "":
		m.SetBodyString(mail.TypeTextHTML, p.HTML)
	default:
		m.SetBodyString(mail.TypeTextPlain, p.Text)
	}
	return m, nil
}
