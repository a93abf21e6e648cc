package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
)

const smtpDialTimeout = 10 * time.Second

// SMTPConfig describes the outbound mail relay.
type SMTPConfig struct {
	Host string
	Port int
	// Secure: implicit TLS (порт 465). Иначе STARTTLS, если сервер его объявляет.
	Secure   bool
	User     string
	Password string
	From     string
}

// Enabled reports whether the relay is configured well enough to send.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

var ErrNoRecipient = errors.New("no recipient specified")

type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers a single HTML message. It is a no-op when the relay is not configured.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if !m.cfg.Enabled() {
		return nil
	}
	if to == "" {
		return ErrNoRecipient
	}
	body, err := buildMessage(m.cfg.From, to, subject, html)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	client, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if !m.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return fmt.Errorf("start TLS: %w", err)
			}
		}
	}
	if m.cfg.User != "" && m.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("initiate data transfer: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data transfer: %w", err)
	}
	return client.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	d := &net.Dialer{Timeout: smtpDialTimeout}

	var conn net.Conn
	var err error
	if m.cfg.Secure {
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: m.cfg.Host}}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("SMTP handshake: %w", err)
	}
	return client, nil
}

func buildMessage(from, to, subject, html string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: "SST Resolve", Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(html)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
