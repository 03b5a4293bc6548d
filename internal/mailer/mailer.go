package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"campusevents/internal/model"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendRegistrationEmail notifies the registrant about a payment-status
// change. timeoutMinutes is only meaningful for the pending notice.
func (m *Mailer) SendRegistrationEmail(eventName, status, recipientEmail string, timeoutMinutes int) error {
	var subject, body string
	switch status {
	case model.PaymentPaid:
		subject = "Payment received: registration confirmed"
		body = fmt.Sprintf("Hello!\n\nYour payment for \"%s\" has been verified and your registration is confirmed.\nSee you there!", eventName)
	case model.PaymentExpired:
		subject = "Registration expired"
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" was cancelled because the payment window closed before we received a payment.", eventName)
	case model.PaymentPending:
		subject = "Complete your registration payment"
		body = fmt.Sprintf("Hello!\n\nYou started a registration for \"%s\". Please complete the payment within %d minutes, otherwise the registration will expire.", eventName, timeoutMinutes)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipientEmail, subject, body,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipientEmail}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("Failed to send email to %s: %v", recipientEmail, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("Email sent to %s (status: %s)", recipientEmail, status)
	return nil
}
