package handlers

import (
	"net/http"

	"case_desk_app_go/services/jobs"

	"github.com/labstack/echo/v4"
)

// RunDeadlineDigest sends the deadline digest now (admin only)
func (h *Handler) RunDeadlineDigest(c echo.Context) error {
	sent := jobs.SendDeadlineDigests(h.Store, h.Mailer, h.Config, h.Log)
	return c.JSON(http.StatusOK, map[string]int{"sent": sent})
}
