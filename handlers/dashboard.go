package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Dashboard returns the case counters
func (h *Handler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.Dashboard())
}

// Kanban returns the cases grouped by status
func (h *Handler) Kanban(c echo.Context) error {
	columns, err := h.Store.Kanban(caseFilter(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, columns)
}

// Calendar returns the deadlines of a month (?month=YYYY-MM, default current)
func (h *Handler) Calendar(c echo.Context) error {
	month := strings.TrimSpace(c.QueryParam("month"))
	if month == "" {
		month = h.Store.Now().Format("2006-01")
	}
	days, err := h.Store.Calendar(month, caseFilter(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"month": month,
		"days":  days,
	})
}
