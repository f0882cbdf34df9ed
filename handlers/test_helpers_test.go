package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"case_desk_app_go/config"
	"case_desk_app_go/logger"
	"case_desk_app_go/middleware"
	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

type testApp struct {
	h      *Handler
	e      *echo.Echo
	admin  *http.Cookie
	alice  *http.Cookie
	static string
	emails *observer.ObservedLogs
}

// setupTestApp wires a handler on a file-backed store with an admin
// (Administrator) and a standard user (Alice) already logged in.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	return setupTestAppWithGateway(t, services.NewBlobGateway(services.NewLocalStorage(t.TempDir()), "db.json"))
}

func setupTestAppWithGateway(t *testing.T, gw services.Gateway) *testApp {
	t.Helper()
	snap := models.DefaultSnapshot()
	snap.Users = append(snap.Users,
		models.User{ID: 2, Name: "Alice", Email: "alice@example.com", Permission: models.PermissionStandard},
		models.User{ID: 3, Name: "Bob", Email: "bob@example.com", Permission: models.PermissionStandard},
	)

	store := services.NewCaseStore(snap, gw, logger.Nop())
	store.SetClock(func() time.Time { return testNow })

	static := t.TempDir()
	cfg := &config.Config{
		Environment:   "test",
		ServerPort:    "3001",
		AppURL:        "http://test.local",
		StaticDir:     static,
		EmailTestMode: true,
	}
	core, emails := observer.New(zap.InfoLevel)
	mailer := services.NewMailer(cfg, zap.New(core).Sugar())
	sessions := services.NewSessionManager(time.Hour)
	h := New(store, mailer, sessions, cfg, logger.Nop())

	e := echo.New()
	e.Use(middleware.InjectConfig(cfg))
	h.RegisterRoutes(e, middleware.NewLoginRateLimiter())

	return &testApp{
		h:      h,
		e:      e,
		admin:  loginCookie(t, sessions, 1),
		alice:  loginCookie(t, sessions, 2),
		static: static,
		emails: emails,
	}
}

// sentTo waits for pending notifications and returns the recipient of every
// email the test mode mailer logged, in order.
func (a *testApp) sentTo() []string {
	a.h.Mailer.Wait()
	to := []string{}
	for _, entry := range a.emails.FilterMessage("Email logged (test mode, not sent)").All() {
		recipient, _ := entry.ContextMap()["to"].(string)
		to = append(to, recipient)
	}
	return to
}

func loginCookie(t *testing.T, sessions *services.SessionManager, userID int64) *http.Cookie {
	t.Helper()
	session, err := sessions.Create(userID)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: session.Token}
}

// do sends a request through the router. body may be nil, a string, or a
// value encoded as JSON.
func (a *testApp) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	case string:
		reader = strings.NewReader(b)
		contentType = echo.MIMEApplicationJSON
	default:
		data, _ := json.Marshal(b)
		reader = strings.NewReader(string(data))
		contentType = echo.MIMEApplicationJSON
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) addCase(t *testing.T, number, assignee string) models.Case {
	t.Helper()
	c, err := a.h.Store.AddCase(context.Background(), "Administrator", models.Case{
		ProcessNumber:    number,
		Court:            "TJSP",
		Subject:          "Contract",
		AssigneeName:     assignee,
		AssignedDeadline: "2025-03-12",
	})
	require.NoError(t, err)
	return c
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func stringToPtr(s string) *string {
	return &s
}
