package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
)

// BulkDeleteRequest is the body of POST /api/cases/delete
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// caseFilter reads the list filters from the query string
func caseFilter(c echo.Context) services.CaseFilter {
	return services.CaseFilter{
		View:     c.QueryParam("view"),
		Assignee: c.QueryParam("assignee"),
		Query:    c.QueryParam("q"),
		Deadline: services.DeadlineClass(c.QueryParam("deadline")),
		Priority: c.QueryParam("priority"),
		Status:   c.QueryParam("status"),
	}
}

func (h *Handler) caseView(c models.Case) services.CaseView {
	return services.CaseView{Case: c, DeadlineClass: services.ClassifyCase(&c, h.Store.Now())}
}

// ListCases returns the cases matching the query filters
func (h *Handler) ListCases(c echo.Context) error {
	cases, err := h.Store.ListCases(caseFilter(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, cases)
}

// GetCase returns a single case
func (h *Handler) GetCase(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	found, err := h.Store.GetCase(id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.caseView(found))
}

// CreateCase registers a new case
func (h *Handler) CreateCase(c echo.Context) error {
	var draft models.Case
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	services.SanitizeCase(&draft)

	created, err := h.Store.AddCase(c.Request().Context(), actorName(c), draft)
	if !committed(err) {
		return h.respondError(c, err)
	}
	h.notifyAssignee(c, created)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, h.caseView(created))
}

// UpdateCase replaces the editable fields of a case
func (h *Handler) UpdateCase(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var update models.Case
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	update.ID = id
	services.SanitizeCase(&update)

	before, err := h.Store.GetCase(id)
	if err != nil {
		return h.respondError(c, err)
	}
	updated, err := h.Store.UpdateCase(c.Request().Context(), actorName(c), update)
	if !committed(err) {
		return h.respondError(c, err)
	}
	if updated.AssigneeName != before.AssigneeName {
		h.notifyAssignee(c, updated)
	}
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.caseView(updated))
}

// UpdateCases applies a batch of updates atomically
func (h *Handler) UpdateCases(c echo.Context) error {
	var updates []models.Case
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	for i := range updates {
		services.SanitizeCase(&updates[i])
	}

	updated, err := h.Store.UpdateMultiple(c.Request().Context(), actorName(c), updates)
	if err != nil {
		return h.respondError(c, err)
	}
	views := make([]services.CaseView, len(updated))
	for i := range updated {
		views[i] = h.caseView(updated[i])
	}
	return c.JSON(http.StatusOK, views)
}

// DeleteCase removes a case
func (h *Handler) DeleteCase(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Store.DeleteCase(c.Request().Context(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteCases removes every listed case
func (h *Handler) DeleteCases(c echo.Context) error {
	var req BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No cases selected"})
	}

	deleted, err := h.Store.DeleteMultiple(c.Request().Context(), req.IDs)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": deleted})
}

// TramitateCase hands a case to another user. Accepts a multipart form
// (toUser, deadline, optional file) or a JSON body without a file.
func (h *Handler) TramitateCase(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	req := services.TramitationRequest{CaseID: id}
	mediaType, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if mediaType == echo.MIMEMultipartForm {
		req.ToUser = c.FormValue("toUser")
		req.Deadline = c.FormValue("deadline")

		fh, err := c.FormFile("file")
		switch {
		case err == nil:
			if fh.Size > services.MaxAttachmentSize {
				return h.respondError(c, services.ErrFileTooLarge)
			}
			req.Attachment = services.AttachmentFromFileHeader(fh)
		case !errors.Is(err, http.ErrMissingFile):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read uploaded file"})
		}
	} else {
		var body struct {
			ToUser   string `json:"toUser"`
			Deadline string `json:"deadline"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		req.ToUser = body.ToUser
		req.Deadline = body.Deadline
	}

	if strings.TrimSpace(req.ToUser) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "toUser is required"})
	}

	updated, target, err := h.Store.Tramitate(c.Request().Context(), actorName(c), req)
	if !committed(err) {
		return h.respondError(c, err)
	}
	h.sendTramitationEmail(c, updated, target)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.caseView(updated))
}

// DownloadAttachment streams the decoded file of an attachment
func (h *Handler) DownloadAttachment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	attachment, err := h.Store.Attachment(id, c.Param("attachmentID"))
	if err != nil {
		return h.respondError(c, err)
	}
	data, contentType, err := services.DecodeAttachment(attachment)
	if err != nil {
		return h.respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": attachment.FileName}))
	return c.Blob(http.StatusOK, contentType, data)
}

// CaseDossier renders the case summary and its tramitation ledger as PDF,
// or as HTML with ?format=html
func (h *Handler) CaseDossier(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	found, err := h.Store.GetCase(id)
	if err != nil {
		return h.respondError(c, err)
	}

	if c.QueryParam("format") == "html" {
		html, err := services.RenderDossierHTML(found, h.Store.Now())
		if err != nil {
			return h.respondError(c, err)
		}
		return c.HTML(http.StatusOK, html)
	}

	pdf, err := services.GenerateDossierPDF(c.Request().Context(), found, h.Store.Now(), services.DefaultPDFOptions(h.Config.ChromePath))
	if err != nil {
		h.Log.Errorw("Failed to generate dossier", "case", found.DisplayID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate PDF"})
	}

	filename := fmt.Sprintf("%s.pdf", found.DisplayID)
	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// notifyAssignee emails the assignee of a case created or reassigned by someone else
func (h *Handler) notifyAssignee(c echo.Context, cs models.Case) {
	if cs.AssigneeName == "" {
		return
	}
	target, ok := h.Store.FindUserByName(cs.AssigneeName)
	if !ok {
		return
	}
	h.sendTramitationEmail(c, cs, target)
}

func (h *Handler) sendTramitationEmail(c echo.Context, cs models.Case, target models.User) {
	actor := actorName(c)
	if target.Email == "" || models.NormalizeKey(target.Name) == models.NormalizeKey(actor) {
		return
	}
	email, err := services.BuildTramitationEmail(cs, actor, target, h.Config.AppURL)
	if err != nil {
		h.Log.Errorw("Failed to build tramitation email", "case", cs.DisplayID, "error", err)
		return
	}
	h.Mailer.SendAsync(email)
}
