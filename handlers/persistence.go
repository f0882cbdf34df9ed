package handlers

import (
	"io"
	"net/http"
	"strconv"

	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
)

// maxSnapshotBody bounds the whole-document upload
const maxSnapshotBody = 64 << 20

// GetDB returns the whole document with password hashes removed
func (h *Handler) GetDB(c echo.Context) error {
	data, err := services.EncodeSnapshot(h.Store.PublicSnapshot())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

// SaveDB replaces the whole document. The body must be a JSON object.
func (h *Handler) SaveDB(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSnapshotBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
	}

	snapshot, err := services.DecodeSnapshot(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid data format"})
	}
	if err := h.Store.Replace(c.Request().Context(), snapshot); err != nil {
		return h.respondError(c, err)
	}

	h.Log.Infow("Snapshot replaced", "cases", len(snapshot.Cases), "users", len(snapshot.Users))
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Status reports that the service is up
func (h *Handler) Status(c echo.Context) error {
	port, err := strconv.Atoi(h.Config.ServerPort)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "online", "port": h.Config.ServerPort})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "online", "port": port})
}

// ListSnapshots lists the stored snapshot versions (database backend only)
func (h *Handler) ListSnapshots(c echo.Context) error {
	history, err := h.Store.History(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"backend":   h.Store.Backend(),
		"snapshots": history,
	})
}

// RestoreSnapshot makes a stored version current again
func (h *Handler) RestoreSnapshot(c echo.Context) error {
	version, err := paramID(c, "version")
	if err != nil {
		return err
	}
	if err := h.Store.Restore(c.Request().Context(), version); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "version": version})
}
