package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"case_desk_app_go/config"
	"case_desk_app_go/middleware"
	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler carries the dependencies shared by every endpoint
type Handler struct {
	Store    *services.CaseStore
	Mailer   *services.Mailer
	Sessions *services.SessionManager
	Config   *config.Config
	Log      *zap.SugaredLogger
}

// New creates the HTTP handlers
func New(store *services.CaseStore, mailer *services.Mailer, sessions *services.SessionManager, cfg *config.Config, log *zap.SugaredLogger) *Handler {
	return &Handler{
		Store:    store,
		Mailer:   mailer,
		Sessions: sessions,
		Config:   cfg,
		Log:      log,
	}
}

// errorStatus maps a service error to its HTTP status
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrCaseNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrLookupNotFound),
		errors.Is(err, services.ErrAttachmentNotFound),
		errors.Is(err, services.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateProcessNumber),
		errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrAttachmentRead):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": ...} for a service error. Internal errors
// are logged and their detail is not sent to the client.
func (h *Handler) respondError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.Log.Errorw("Request failed", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		message := "Internal server error"
		if errors.Is(err, services.ErrSaveFailed) {
			message = services.ErrSaveFailed.Error()
		}
		return c.JSON(status, map[string]string{"error": message})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// committed reports whether a store command changed the state. A failed save
// still leaves the change in memory, so its follow-up work must run.
func committed(err error) bool {
	return err == nil || errors.Is(err, services.ErrSaveFailed)
}

// paramID parses a numeric path parameter
func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// actorName is the name recorded on tramitations made by the current user
func actorName(c echo.Context) string {
	if user := middleware.GetCurrentUser(c); user != nil {
		return user.Name
	}
	return ""
}
