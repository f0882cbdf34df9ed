package handlers

import (
	"net/http"

	"case_desk_app_go/middleware"
	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
)

// UserRequest is the body of user create and update. A missing password
// keeps the stored one on update; an empty one makes the user passwordless.
type UserRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Permission string  `json:"permission"`
	Password   *string `json:"password"`
}

func (r UserRequest) input() services.UserInput {
	return services.UserInput{
		Name:       services.SanitizeText(r.Name),
		Email:      services.SanitizeText(r.Email),
		Permission: r.Permission,
		Password:   r.Password,
	}
}

// GetUsers returns every user without password hashes
func (h *Handler) GetUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.Users())
}

// GetUser returns a single user
func (h *Handler) GetUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.Store.GetUser(id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser creates a new user (admin only)
func (h *Handler) CreateUser(c echo.Context) error {
	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, err := h.Store.AddUser(c.Request().Context(), req.input())
	if err != nil {
		return h.respondError(c, err)
	}

	h.Log.Infow("User created", "user", user.Name, "by", actorName(c))
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser edits a user (admin only). Sessions are dropped when the
// password changes.
func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, err := h.Store.UpdateUser(c.Request().Context(), id, req.input())
	if !committed(err) {
		return h.respondError(c, err)
	}

	if req.Password != nil {
		keep := ""
		if current := middleware.GetCurrentSession(c); current != nil {
			keep = current.Token
		}
		h.Sessions.DeleteOtherSessions(id, keep)
	}
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user (admin only). Deleting yourself is refused.
func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if current := middleware.GetCurrentUser(c); current != nil && current.ID == id {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "You cannot delete your own account"})
	}
	err = h.Store.DeleteUser(c.Request().Context(), id)
	if !committed(err) {
		return h.respondError(c, err)
	}

	h.Sessions.DeleteUserSessions(id)
	if err != nil {
		return h.respondError(c, err)
	}
	h.Log.Infow("User deleted", "id", id, "by", actorName(c))
	return c.NoContent(http.StatusNoContent)
}
