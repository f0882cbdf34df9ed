package handlers

import (
	"net/http"

	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
)

// LookupRequest is the body of lookup create and rename
type LookupRequest struct {
	Name string `json:"name"`
}

// lookupKind reads the :kind path parameter
func lookupKind(c echo.Context) (string, error) {
	kind := c.Param("kind")
	if !models.IsValidLookupKind(kind) {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Unknown lookup kind")
	}
	return kind, nil
}

// ListLookups returns the tribunals, phases or statuses
func (h *Handler) ListLookups(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}
	list, err := h.Store.Lookups(kind)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateLookup adds a lookup entry (admin only)
func (h *Handler) CreateLookup(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	entry, err := h.Store.AddLookup(c.Request().Context(), kind, services.SanitizeText(req.Name))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// RenameLookup renames a lookup entry (admin only). Cases keep the old name.
func (h *Handler) RenameLookup(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	entry, err := h.Store.RenameLookup(c.Request().Context(), kind, id, services.SanitizeText(req.Name))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteLookup removes a lookup entry (admin only)
func (h *Handler) DeleteLookup(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Store.DeleteLookup(c.Request().Context(), kind, id); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
