package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"sjsage522/auctionwatcher/internal/model"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// EmailConfig holds SMTP settings. The channel skips unless every field is set.
type EmailConfig struct {
	Enabled   bool
	Server    string
	Port      int
	Sender    string
	Password  string
	Recipient string
}

func (c EmailConfig) complete() bool {
	return c.Enabled && c.Server != "" && c.Port > 0 && c.Sender != "" && c.Password != "" && c.Recipient != ""
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel sends an HTML alert over SMTP; STARTTLS is used when the
// server offers it.
type EmailChannel struct {
	cfg      EmailConfig
	sendMail sendMailFunc
	now      func() time.Time
}

func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Send(_ context.Context, items []model.UrgentItem) error {
	if !e.cfg.complete() {
		return fmt.Errorf("email configuration incomplete: %w", apperrors.ErrUnavailable)
	}

	body, err := emailHTML(items, e.now())
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	var msg strings.Builder
	msg.WriteString("From: " + e.cfg.Sender + "\r\n")
	msg.WriteString("To: " + e.cfg.Recipient + "\r\n")
	msg.WriteString("Subject: " + emailSubject(items) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	addr := net.JoinHostPort(e.cfg.Server, strconv.Itoa(e.cfg.Port))
	auth := smtp.PlainAuth("", e.cfg.Sender, e.cfg.Password, e.cfg.Server)
	return e.sendMail(addr, auth, e.cfg.Sender, []string{e.cfg.Recipient}, []byte(msg.String()))
}
