package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/xavierca1/ligue-leads/internal/usecase"
	"gopkg.in/gomail.v2"
)

var _ usecase.Notifier = (*EmailSender)(nil)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// sender is the part of *gomail.Dialer the EmailSender uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From       string
	Supervisor string
	dialer     sender
}

func NewEmailSender(cfg Config) *EmailSender {
	return &EmailSender{
		From:       cfg.From,
		Supervisor: cfg.Supervisor,
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (s *EmailSender) NotifyTakeOver(_ context.Context, notice usecase.TakeOverNotice) error {
	name := notice.ContactName
	if name == "" {
		name = notice.LeadID
	}
	subject := fmt.Sprintf("Lead %s taken over by %s", name, notice.NewAgent)
	return s.send(subject, "take_over.html", notice)
}

func (s *EmailSender) NotifyReconciliation(_ context.Context, report usecase.ReconciliationReport) error {
	subject := fmt.Sprintf("Reconciliation: %d orphaned claims, %d mismatched customers",
		len(report.OrphanedClaims), len(report.MismatchedCustomer))
	return s.send(subject, "reconciliation.html", report)
}

func (s *EmailSender) send(subject, tmpl string, data any) error {
	if s.Supervisor == "" {
		return fmt.Errorf("no supervisor address configured")
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.Supervisor)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send smtp: %w", err)
	}
	return nil
}
