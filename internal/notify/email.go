package notify

import (
	"fmt"

	"backend/internal/model"

	gopkgmail "gopkg.in/gomail.v2"
)

// EmailConfig carries the SMTP settings for alert mail.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

// EmailNotifier sends one plain-text mail per alert via SMTP.
type EmailNotifier struct {
	cfg EmailConfig
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (s *EmailNotifier) Send(alertKind, subjectLabel, storeLabel string, details model.AlertDetails) error {
	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To...)
	m.SetHeader("Subject", fmt.Sprintf("[stock alert] %s: %s @ %s", alertKind, subjectLabel, storeLabel))
	m.SetBody("text/plain", renderBody(alertKind, subjectLabel, storeLabel, details))

	d := gopkgmail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	return d.DialAndSend(m)
}

func renderBody(alertKind, subjectLabel, storeLabel string, d model.AlertDetails) string {
	return fmt.Sprintf(
		"Alert:     %s\nSubject:   %s\nStore:     %s\n\nCurrent:   %.3f\nExpected:  %.3f\nVariance:  %.3f (%.1f%%)\nThreshold: %.3f\n",
		alertKind, subjectLabel, storeLabel,
		d.CurrentValue, d.ExpectedValue, d.Variance, d.VariancePercentage, d.Threshold,
	)
}
