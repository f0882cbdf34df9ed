package services

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"case_desk_app_go/config"
	"case_desk_app_go/models"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

//go:embed templates/emails/*
var emailTemplates embed.FS

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer sends notification emails through Resend. In test mode emails are
// only logged.
type Mailer struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	client *resend.Client

	wg sync.WaitGroup
}

// NewMailer creates a mailer from the email settings
func NewMailer(cfg *config.Config, log *zap.SugaredLogger) *Mailer {
	m := &Mailer{cfg: cfg, log: log}
	if !cfg.EmailTestMode && cfg.ResendAPIKey != "" {
		m.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return m
}

// Send sends an email using the Resend API
func (m *Mailer) Send(email *Email) error {
	if len(email.To) == 0 || strings.TrimSpace(email.To[0]) == "" {
		return fmt.Errorf("%w: email has no recipient", ErrInvalidInput)
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	// In test mode, log the email instead of sending
	if m.cfg.EmailTestMode {
		m.log.Infow("Email logged (test mode, not sent)",
			"to", strings.Join(email.To, ", "),
			"subject", email.Subject,
			"text", truncate(email.TextBody, 500),
		)
		return nil
	}

	if m.client == nil {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.cfg.EmailFromName, m.cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	sent, err := m.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	m.log.Infow("Email sent via Resend", "id", sent.Id, "to", email.To)
	return nil
}

// SendAsync sends an email in a goroutine so handlers do not block on it
func (m *Mailer) SendAsync(email *Email) {
	// Copy to avoid races with the caller
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.Send(emailCopy); err != nil {
			m.log.Errorw("Error sending async email", "to", emailCopy.To, "error", err)
		}
	}()
}

// Wait blocks until every async send has finished
func (m *Mailer) Wait() {
	m.wg.Wait()
}

// renderEmail executes templateName.html and templateName.txt
func renderEmail(templateName string, data interface{}) (string, string, error) {
	htmlSrc, err := emailTemplates.ReadFile("templates/emails/" + templateName + ".html")
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s: %w", templateName, err)
	}
	textSrc, err := emailTemplates.ReadFile("templates/emails/" + templateName + ".txt")
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	htmlTmpl, err := htmltemplate.New(templateName).Parse(string(htmlSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}
	textTmpl, err := texttemplate.New(templateName).Parse(string(textSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// TramitationEmailData contains data for the tramitation email template
type TramitationEmailData struct {
	RecipientName string
	FromUser      string
	DisplayID     string
	ProcessNumber string
	Court         string
	Subject       string
	Deadline      string
	CaseLink      string
}

// BuildTramitationEmail notifies the new assignee that a case was handed to them
func BuildTramitationEmail(c models.Case, fromUser string, to models.User, appURL string) (*Email, error) {
	data := TramitationEmailData{
		RecipientName: to.Name,
		FromUser:      fromUser,
		DisplayID:     c.DisplayID,
		ProcessNumber: c.ProcessNumber,
		Court:         c.Court,
		Subject:       c.Subject,
		Deadline:      c.AssignedDeadline,
		CaseLink:      fmt.Sprintf("%s/cases/%d", strings.TrimRight(appURL, "/"), c.ID),
	}

	htmlBody, textBody, err := renderEmail("tramitation", data)
	if err != nil {
		return nil, err
	}
	return &Email{
		To:       []string{to.Email},
		Subject:  fmt.Sprintf("Case %s (%s) assigned to you", c.DisplayID, c.ProcessNumber),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

// DigestEntry is one case line of the deadline digest
type DigestEntry struct {
	DisplayID     string
	ProcessNumber string
	Subject       string
	DueDate       string
	Overdue       bool
}

// DeadlineDigestData contains data for the deadline digest email template
type DeadlineDigestData struct {
	RecipientName string
	Date          string
	Overdue       []DigestEntry
	DueSoon       []DigestEntry
	AppLink       string
}

// BuildDeadlineDigestEmail lists a user's overdue and due-soon cases
func BuildDeadlineDigestEmail(user models.User, cases []CaseView, appURL string, now time.Time) (*Email, error) {
	data := DeadlineDigestData{
		RecipientName: user.Name,
		Date:          now.Format("2006-01-02"),
		AppLink:       strings.TrimRight(appURL, "/"),
	}
	for _, cv := range cases {
		entry := DigestEntry{
			DisplayID:     cv.DisplayID,
			ProcessNumber: cv.ProcessNumber,
			Subject:       cv.Subject,
			DueDate:       cv.DueDate(),
		}
		switch cv.DeadlineClass {
		case DeadlineOverdue:
			entry.Overdue = true
			data.Overdue = append(data.Overdue, entry)
		case DeadlineDueSoon:
			data.DueSoon = append(data.DueSoon, entry)
		}
	}
	if len(data.Overdue) == 0 && len(data.DueSoon) == 0 {
		return nil, nil
	}

	htmlBody, textBody, err := renderEmail("deadline_digest", data)
	if err != nil {
		return nil, err
	}
	return &Email{
		To:       []string{user.Email},
		Subject:  fmt.Sprintf("Deadlines: %d overdue, %d due soon", len(data.Overdue), len(data.DueSoon)),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

// truncate cuts s to at most maxLen runes
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
