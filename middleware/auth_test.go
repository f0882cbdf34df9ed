package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"case_desk_app_go/config"
	"case_desk_app_go/logger"
	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *services.CaseStore {
	t.Helper()
	snap := models.DefaultSnapshot()
	snap.Users = append(snap.Users, models.User{ID: 2, Name: "Alice", Email: "alice@example.com", Permission: models.PermissionStandard})
	gw := services.NewBlobGateway(services.NewLocalStorage(t.TempDir()), "db.json")
	return services.NewCaseStore(snap, gw, logger.Nop())
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "success")
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	store := setupTestStore(t)
	sessions := services.NewSessionManager(time.Hour)
	mw := RequireAuth(sessions, store)

	t.Run("ValidSession", func(t *testing.T) {
		session, err := sessions.Create(2)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, mw(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, GetCurrentUser(c))
		assert.Equal(t, "Alice", GetCurrentUser(c).Name)
		assert.Equal(t, session.Token, GetCurrentSession(c).Token)
	})

	t.Run("NoCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
		c := e.NewContext(req, httptest.NewRecorder())

		err := mw(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := mw(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookieName+"=;")
	})

	t.Run("DeletedUser", func(t *testing.T) {
		_, err := store.AddUser(context.Background(), services.UserInput{Name: "Temp", Email: "temp@example.com"})
		require.NoError(t, err)
		temp, ok := store.FindUserByName("Temp")
		require.True(t, ok)
		session, err := sessions.Create(temp.ID)
		require.NoError(t, err)
		require.NoError(t, store.DeleteUser(context.Background(), temp.ID))

		req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		c := e.NewContext(req, httptest.NewRecorder())

		err = mw(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)

		_, err = sessions.Validate(session.Token)
		assert.Error(t, err, "session of a deleted user is dropped")
	})
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()

	t.Run("Admin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.Set(ContextKeyUser, &models.User{Permission: models.PermissionAdmin})

		assert.NoError(t, RequireAdmin()(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Standard", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(ContextKeyUser, &models.User{Permission: models.PermissionStandard})

		err := RequireAdmin()(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("Anonymous", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		err := RequireAdmin()(okHandler)(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestSessionCookie(t *testing.T) {
	e := echo.New()
	session := &services.Session{Token: "tok", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("Development", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/login", nil), rec)
		SetSessionCookie(c, session)

		cookie := rec.Result().Cookies()[0]
		assert.Equal(t, SessionCookieName, cookie.Name)
		assert.Equal(t, "tok", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.False(t, cookie.Secure)
	})

	t.Run("Production", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/login", nil), rec)
		require.NoError(t, InjectConfig(&config.Config{Environment: "production"})(func(c echo.Context) error {
			SetSessionCookie(c, session)
			return nil
		})(c))

		assert.True(t, rec.Result().Cookies()[0].Secure)
	})

	t.Run("Clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/logout", nil), rec)
		ClearSessionCookie(c)

		cookie := rec.Result().Cookies()[0]
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge)
	})
}
