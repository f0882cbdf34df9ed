package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// failingGateway loads nothing and refuses every save
type failingGateway struct{}

func (failingGateway) Name() string { return "failing" }
func (failingGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	return nil, services.ErrSnapshotNotFound
}
func (failingGateway) Save(ctx context.Context, snapshot *models.Snapshot) error {
	return errors.New("disk full")
}

func TestStatus(t *testing.T) {
	app := setupTestApp(t)

	rec := app.do(http.MethodGet, "/api/status", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"online","port":3001}`, rec.Body.String())
}

func TestGetDB(t *testing.T) {
	app := setupTestApp(t)
	_, err := app.h.Store.UpdateUser(context.Background(), 2, services.UserInput{
		Name: "Alice", Email: "alice@example.com", Password: stringToPtr("secret"),
	})
	require.NoError(t, err)
	app.addCase(t, "123-A", "Alice")

	t.Run("requires a session", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/db", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("redacts passwords", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/db", nil, app.alice)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), `"password"`)

		var snap models.Snapshot
		decode(t, rec, &snap)
		assert.Len(t, snap.Users, 3)
		require.Len(t, snap.Cases, 1)
		assert.Equal(t, "MST0001", snap.Cases[0].DisplayID)
		assert.Len(t, snap.Statuses, 5)
	})
}

func TestSaveDB(t *testing.T) {
	app := setupTestApp(t)
	_, err := app.h.Store.UpdateUser(context.Background(), 2, services.UserInput{
		Name: "Alice", Email: "alice@example.com", Password: stringToPtr("secret"),
	})
	require.NoError(t, err)

	t.Run("rejects non-objects", func(t *testing.T) {
		for _, body := range []string{`[1,2]`, `"text"`, `42`, ``, `{broken`} {
			rec := app.do(http.MethodPost, "/api/save", body, app.admin)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("admin only", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/save", `{}`, app.alice)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("replaces the document", func(t *testing.T) {
		body := `{
			"users": [
				{"id": 1, "name": "Administrator", "email": "admin@casedesk.local", "permission": "admin"},
				{"id": 2, "name": "Alice", "email": "alice@example.com", "permission": "standard"}
			],
			"cases": [{"id": 7, "processNumber": "777-Z", "status": "Open", "tramitations": [], "attachments": []}],
			"tribunals": [{"id": 1, "name": "TJSP"}],
			"phases": [],
			"statuses": [{"id": 1, "name": "Open"}]
		}`
		rec := app.do(http.MethodPost, "/api/save", body, app.admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())

		cases := app.h.Store.Cases()
		require.Len(t, cases, 1)
		assert.Equal(t, "MST0007", cases[0].DisplayID)
		assert.Len(t, app.h.Store.Users(), 2)

		// Alice was sent without a password and keeps her hash
		_, err := app.h.Store.Authenticate("alice@example.com", "secret")
		assert.NoError(t, err)

		// New cases continue after the highest saved id
		created := app.addCase(t, "888-Y", "Alice")
		assert.Equal(t, int64(8), created.ID)
	})
}

func TestSaveFailureReturns500(t *testing.T) {
	app := setupTestAppWithGateway(t, failingGateway{})

	rec := app.do(http.MethodPost, "/api/save", `{"users":[{"id":1,"name":"Administrator","email":"admin@casedesk.local","permission":"admin"}]}`, app.admin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to persist snapshot")
	assert.NotContains(t, rec.Body.String(), "disk full")

	rec = app.do(http.MethodPost, "/api/cases", map[string]string{"processNumber": "1-A"}, app.admin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The command stays applied in memory
	assert.Len(t, app.h.Store.Cases(), 1)
}

func TestSaveFailureKeepsFollowUps(t *testing.T) {
	app := setupTestAppWithGateway(t, failingGateway{})
	aliceSecond := loginCookie(t, app.h.Sessions, 2)
	bob := loginCookie(t, app.h.Sessions, 3)

	t.Run("password change ends other sessions", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/api/users/2", UserRequest{
			Name: "Alice", Email: "alice@example.com", Password: stringToPtr("new-password"),
		}, app.admin)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		_, err := app.h.Sessions.Validate(app.alice.Value)
		assert.Error(t, err)
		_, err = app.h.Sessions.Validate(aliceSecond.Value)
		assert.Error(t, err)
		_, err = app.h.Sessions.Validate(app.admin.Value)
		assert.NoError(t, err)
	})

	t.Run("new assignee is notified", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/cases", map[string]string{"processNumber": "9-Z", "name": "Bob"}, app.admin)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, []string{"bob@example.com"}, app.sentTo())
	})

	t.Run("deleted user loses sessions", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/api/users/3", nil, app.admin)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		_, err := app.h.Sessions.Validate(bob.Value)
		assert.Error(t, err)
	})
}

func TestSnapshots(t *testing.T) {
	t.Run("file backend keeps no history", func(t *testing.T) {
		app := setupTestApp(t)
		rec := app.do(http.MethodGet, "/api/snapshots", nil, app.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("database backend", func(t *testing.T) {
		database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		require.NoError(t, err)
		sqlDB, err := database.DB()
		require.NoError(t, err)
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { sqlDB.Close() })

		gw, err := services.NewDatabaseGateway(database, 10)
		require.NoError(t, err)
		app := setupTestAppWithGateway(t, gw)

		app.addCase(t, "1-A", "Alice")
		app.addCase(t, "2-B", "Alice")

		rec := app.do(http.MethodGet, "/api/snapshots", nil, app.alice)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(http.MethodGet, "/api/snapshots", nil, app.admin)
		require.Equal(t, http.StatusOK, rec.Code)
		var listing struct {
			Backend   string                  `json:"backend"`
			Snapshots []services.SnapshotInfo `json:"snapshots"`
		}
		decode(t, rec, &listing)
		assert.Equal(t, "database", listing.Backend)
		require.Len(t, listing.Snapshots, 2)

		rec = app.do(http.MethodPost, "/api/snapshots/1/restore", nil, app.admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, app.h.Store.Cases(), 1)

		rec = app.do(http.MethodPost, "/api/snapshots/99/restore", nil, app.admin)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.do(http.MethodPost, "/api/snapshots/abc/restore", nil, app.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
