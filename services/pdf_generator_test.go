package services

import (
	"context"
	"os"
	"testing"
	"time"

	"case_desk_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPDFOptions(t *testing.T) {
	opts := DefaultPDFOptions("/usr/bin/chromium")
	assert.Equal(t, "/usr/bin/chromium", opts.ChromePath)
	assert.Equal(t, "portrait", opts.PageOrientation)
	assert.Equal(t, "A4", opts.PageSize)

	w, h := opts.paperSize()
	assert.Equal(t, 8.27, w)
	assert.Equal(t, 11.69, h)

	opts.PageSize = "letter"
	opts.PageOrientation = "landscape"
	w, h = opts.paperSize()
	assert.Equal(t, 11.0, w)
	assert.Equal(t, 8.5, h)
}

func TestRenderDossierHTML(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	c := models.Case{
		DisplayID:        "MST0007",
		ProcessNumber:    "0007-11",
		Subject:          "<script>alert(1)</script>",
		Status:           "Open",
		AssignedDeadline: "2025-03-01",
		Value:            1500,
		Tramitations: []models.Tramitation{
			{FromUser: "Administrator", ToUser: "Alice", Timestamp: now.Add(-time.Hour)},
			{FromUser: "Alice", ToUser: "Bob", Timestamp: now, Deadline: "2025-03-20"},
		},
		Attachments: []models.Attachment{{FileName: "petition.pdf", FileType: "application/pdf", FileSize: 2048}},
	}

	html, err := RenderDossierHTML(c, now)
	require.NoError(t, err)

	assert.Contains(t, html, "MST0007: 0007-11")
	assert.Contains(t, html, "overdue")
	assert.Contains(t, html, "1500.00")
	assert.Contains(t, html, "2025-03-10 09:00")
	assert.Contains(t, html, "petition.pdf")
	assert.Contains(t, html, "2.0 KB")
	assert.NotContains(t, html, "<script>")
}

func TestGenerateDossierPDFSmoke(t *testing.T) {
	chromePath := os.Getenv("CHROME_PATH")
	if chromePath == "" {
		t.Skip("Skipping PDF generation test: CHROME_PATH not set")
	}

	c := models.Case{DisplayID: "MST0001", ProcessNumber: "123-A"}
	pdf, err := GenerateDossierPDF(context.Background(), c, time.Now(), DefaultPDFOptions(chromePath))
	if err != nil {
		if os.IsNotExist(err) {
			t.Skipf("Skipping: Chrome not found at %s", chromePath)
		}
		t.Errorf("GenerateDossierPDF failed: %v", err)
		return
	}

	assert.True(t, len(pdf) > 0)
	assert.Contains(t, string(pdf[:5]), "%PDF-")
}
