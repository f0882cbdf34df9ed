package handlers

import (
	"fmt"
	"net/http"

	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxImportFileSize bounds spreadsheet uploads
const maxImportFileSize = 10 << 20

// PasteRequest is the body of POST /api/import/paste
type PasteRequest struct {
	Text string `json:"text" form:"text"`
}

// ImportCases reconciles an uploaded spreadsheet against the store
func (h *Handler) ImportCases(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}
	if file.Size > maxImportFileSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "File too large"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to open file"})
	}
	defer src.Close()

	rows, err := services.ParseSpreadsheet(src)
	if err != nil {
		return h.respondError(c, err)
	}
	return h.importRows(c, rows, file.Filename)
}

// ImportPasted reconciles tab-separated rows pasted from a spreadsheet
func (h *Handler) ImportPasted(c echo.Context) error {
	var req PasteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	rows, err := services.ParsePasted(req.Text)
	if err != nil {
		return h.respondError(c, err)
	}
	return h.importRows(c, rows, "paste")
}

func (h *Handler) importRows(c echo.Context, rows []models.Case, source string) error {
	for i := range rows {
		services.SanitizeCase(&rows[i])
	}
	report, err := h.Store.Import(c.Request().Context(), rows)
	if err != nil {
		return h.respondError(c, err)
	}

	if report.Accepted == nil {
		report.Accepted = []models.Case{}
	}
	if report.RejectedDuplicateInSystem == nil {
		report.RejectedDuplicateInSystem = []string{}
	}
	if report.RejectedDuplicateInFile == nil {
		report.RejectedDuplicateInFile = []string{}
	}

	h.Log.Infow("Import finished",
		"source", source,
		"by", actorName(c),
		"rows", len(rows),
		"accepted", len(report.Accepted),
	)
	return c.JSON(http.StatusOK, report)
}

// GetImportTemplate serves the xlsx import template
func (h *Handler) GetImportTemplate(c echo.Context) error {
	tribunals, _ := h.Store.Lookups(models.LookupTribunals)
	phases, _ := h.Store.Lookups(models.LookupPhases)
	statuses, _ := h.Store.Lookups(models.LookupStatuses)

	buf, err := services.GenerateImportTemplate(tribunals, phases, statuses)
	if err != nil {
		h.Log.Errorw("Failed to generate import template", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate template")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=case_import_template.xlsx")
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportCases serves the filtered cases as xlsx (defaults to every case)
func (h *Handler) ExportCases(c echo.Context) error {
	filter := caseFilter(c)
	if filter.View == "" {
		filter.View = services.ViewAll
	}
	cases, err := h.Store.ListCases(filter)
	if err != nil {
		return h.respondError(c, err)
	}

	buf, err := services.ExportCases(cases)
	if err != nil {
		h.Log.Errorw("Failed to export cases", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export cases")
	}

	filename := fmt.Sprintf("cases_%s.xlsx", h.Store.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
