package handlers

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type importResponse struct {
	Accepted                  []models.Case `json:"accepted"`
	RejectedDuplicateInSystem []string     `json:"rejectedDuplicateInSystem"`
	RejectedDuplicateInFile   []string     `json:"rejectedDuplicateInFile"`
}

func TestImportPasted(t *testing.T) {
	app := setupTestApp(t)
	app.addCase(t, "P2", "Alice")

	text := "Process Number\tCourt\tAssignee\tDeadline\n" +
		"P1\tTJSP\tBob\t01/04/2025\n" +
		"P1\tTJSP\tAlice\t\n" +
		"p2\tTRT-2\t\t\n"

	rec := app.do(http.MethodPost, "/api/import/paste", PasteRequest{Text: text}, app.alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report importResponse
	decode(t, rec, &report)
	require.Len(t, report.Accepted, 1)
	assert.Equal(t, "P1", report.Accepted[0].ProcessNumber)
	assert.Equal(t, "Bob", report.Accepted[0].AssigneeName)
	assert.Equal(t, "bob@example.com", report.Accepted[0].AssigneeEmail)
	assert.Equal(t, "2025-04-01", report.Accepted[0].AssignedDeadline)
	assert.Equal(t, []string{"P1"}, report.RejectedDuplicateInFile)
	assert.Equal(t, []string{"p2"}, report.RejectedDuplicateInSystem)

	assert.Len(t, app.h.Store.Cases(), 2)

	t.Run("no header", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/import/paste", PasteRequest{Text: "a\tb\n1\t2"}, app.alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires login", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/import/paste", PasteRequest{Text: text}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestImportSpreadsheet(t *testing.T) {
	app := setupTestApp(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nº do Processo", "Tribunal", "Prioridade"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"X-100", "TJSP", "Alta"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"X-101", "STJ", "Baixa"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	rec := app.doMultipart(t, "/api/import", nil, "cases.xlsx", buf.Bytes(), app.alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report importResponse
	decode(t, rec, &report)
	require.Len(t, report.Accepted, 2)
	assert.Equal(t, models.PriorityHigh, report.Accepted[0].Priority)
	assert.Equal(t, models.PriorityLow, report.Accepted[1].Priority)
	assert.Empty(t, report.RejectedDuplicateInFile)

	t.Run("not a spreadsheet", func(t *testing.T) {
		rec := app.doMultipart(t, "/api/import", nil, "cases.xlsx", []byte("plain text"), app.alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := app.doMultipart(t, "/api/import", map[string]string{"note": "x"}, "", nil, app.alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestImportTemplateAndExport(t *testing.T) {
	app := setupTestApp(t)
	app.addCase(t, "E-1", "Alice")
	app.addCase(t, "E-2", "Bob")

	rec := app.do(http.MethodGet, "/api/import/template", nil, app.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "case_import_template.xlsx")

	rec = app.do(http.MethodGet, "/api/export", nil, app.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cases_2025-03-10.xlsx")

	// The export reads back through the importer
	cases, err := services.ParseSpreadsheet(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	numbers := []string{}
	for _, c := range cases {
		numbers = append(numbers, c.ProcessNumber)
	}
	assert.ElementsMatch(t, []string{"E-1", "E-2"}, numbers)

	rec = app.do(http.MethodGet, "/api/export?view=active&assignee=Bob", nil, app.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	cases, err = services.ParseSpreadsheet(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "E-2", cases[0].ProcessNumber)
}

func TestRunDeadlineDigest(t *testing.T) {
	app := setupTestApp(t)
	_, err := app.h.Store.AddCase(context.Background(), "Administrator", models.Case{
		ProcessNumber:    "LATE-1",
		AssigneeName:     "Alice",
		AssignedDeadline: "2025-03-01",
	})
	require.NoError(t, err)

	rec := app.do(http.MethodPost, "/api/jobs/digest", nil, app.alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPost, "/api/jobs/digest", nil, app.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent":1}`, rec.Body.String())
}
