package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"case_desk_app_go/models"
)

var dossierTemplate = template.Must(template.New("dossier").Funcs(template.FuncMap{
	"money": func(m models.Money) string { return fmt.Sprintf("%.2f", float64(m)) },
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"kb":    func(n int64) string { return fmt.Sprintf("%.1f KB", float64(n)/1024) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: "Times New Roman", Times, serif; font-size: 11pt; color: #000; }
  h1 { font-size: 16pt; text-align: center; margin-bottom: 4pt; }
  .sub { text-align: center; margin-bottom: 18pt; }
  h2 { font-size: 13pt; margin-top: 18pt; border-bottom: 1px solid #999; }
  table { width: 100%; border-collapse: collapse; }
  td, th { border: 1px solid #bbb; padding: 4pt 6pt; text-align: left; vertical-align: top; }
  th { background: #eee; }
  .label { width: 30%; font-weight: bold; }
  .class { font-weight: bold; text-transform: uppercase; }
</style>
</head>
<body>
<h1>{{.Case.DisplayID}}: {{.Case.ProcessNumber}}</h1>
<div class="sub">Generated {{stamp .GeneratedAt}} &middot; deadline status <span class="class">{{.DeadlineClass}}</span></div>

<h2>Case</h2>
<table>
  <tr><td class="label">Court</td><td>{{.Case.Court}}</td></tr>
  <tr><td class="label">Venue</td><td>{{.Case.Venue}}</td></tr>
  <tr><td class="label">Author</td><td>{{.Case.Author}}</td></tr>
  <tr><td class="label">Defendant</td><td>{{.Case.Defendant}}</td></tr>
  <tr><td class="label">Subject</td><td>{{.Case.Subject}}</td></tr>
  <tr><td class="label">Value</td><td>{{money .Case.Value}}</td></tr>
  <tr><td class="label">Secret</td><td>{{if .Case.Secret}}Yes{{else}}No{{end}}</td></tr>
  <tr><td class="label">Priority</td><td>{{.Case.Priority}}</td></tr>
  <tr><td class="label">Phase</td><td>{{.Case.Phase}}</td></tr>
  <tr><td class="label">Status</td><td>{{.Case.Status}}</td></tr>
  <tr><td class="label">Appointment date</td><td>{{.Case.AppointmentDate}}</td></tr>
  <tr><td class="label">Start date</td><td>{{.Case.StartDate}}</td></tr>
  <tr><td class="label">Assigned deadline</td><td>{{.Case.AssignedDeadline}}</td></tr>
  <tr><td class="label">Final deadline</td><td>{{.Case.FinalDeadline}}</td></tr>
  <tr><td class="label">Assignee</td><td>{{.Case.AssigneeName}}{{if .Case.AssigneeEmail}} &lt;{{.Case.AssigneeEmail}}&gt;{{end}}</td></tr>
  <tr><td class="label">Co-responsible</td><td>{{.Case.CoResponsible}}</td></tr>
</table>

<h2>Tramitations</h2>
<table>
  <tr><th>When</th><th>From</th><th>To</th><th>Deadline</th></tr>
  {{range .Case.Tramitations}}<tr><td>{{stamp .Timestamp}}</td><td>{{.FromUser}}</td><td>{{.ToUser}}</td><td>{{.Deadline}}</td></tr>
  {{end}}
</table>

{{if .Case.Attachments}}
<h2>Attachments</h2>
<table>
  <tr><th>File</th><th>Type</th><th>Size</th><th>Uploaded by</th><th>When</th></tr>
  {{range .Case.Attachments}}<tr><td>{{.FileName}}</td><td>{{.FileType}}</td><td>{{kb .FileSize}}</td><td>{{.UploadedBy}}</td><td>{{stamp .Timestamp}}</td></tr>
  {{end}}
</table>
{{end}}
</body>
</html>
`))

// RenderDossierHTML renders the printable summary of a case and its ledger
func RenderDossierHTML(c models.Case, now time.Time) (string, error) {
	data := struct {
		Case          models.Case
		DeadlineClass DeadlineClass
		GeneratedAt   time.Time
	}{
		Case:          c,
		DeadlineClass: ClassifyCase(&c, now),
		GeneratedAt:   now,
	}

	var buf bytes.Buffer
	if err := dossierTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render dossier: %w", err)
	}
	return buf.String(), nil
}

// GenerateDossierPDF renders a case dossier to PDF
func GenerateDossierPDF(ctx context.Context, c models.Case, now time.Time, options PDFOptions) ([]byte, error) {
	html, err := RenderDossierHTML(c, now)
	if err != nil {
		return nil, err
	}
	return GeneratePDF(ctx, html, options)
}
