package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"case_desk_app_go/config"
	"case_desk_app_go/logger"
	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type discardGateway struct{}

func (discardGateway) Name() string { return "discard" }
func (discardGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	return nil, services.ErrSnapshotNotFound
}
func (discardGateway) Save(ctx context.Context, snapshot *models.Snapshot) error { return nil }

func setupDigestStore(t *testing.T) *services.CaseStore {
	t.Helper()
	snap := models.DefaultSnapshot()
	snap.Users = append(snap.Users,
		models.User{ID: 2, Name: "Alice", Email: "alice@example.com", Permission: models.PermissionStandard},
		models.User{ID: 3, Name: "Bob", Email: "bob@example.com", Permission: models.PermissionStandard},
		models.User{ID: 4, Name: "Carol", Permission: models.PermissionStandard},
	)
	store := services.NewCaseStore(snap, discardGateway{}, logger.Nop())
	store.SetClock(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) })

	ctx := context.Background()
	drafts := []models.Case{
		{ProcessNumber: "OVER-1", AssigneeName: "Alice", AssignedDeadline: "2025-03-01"},
		{ProcessNumber: "SOON-1", AssigneeName: "Alice", FinalDeadline: "2025-03-12"},
		{ProcessNumber: "FAR-1", AssigneeName: "Bob", AssignedDeadline: "2025-06-01"},
		{ProcessNumber: "DONE-1", AssigneeName: "Bob", AssignedDeadline: "2025-01-01", Status: "Concluded"},
		{ProcessNumber: "NOMAIL-1", AssigneeName: "Carol", AssignedDeadline: "2025-03-01"},
	}
	for _, d := range drafts {
		_, err := store.AddCase(ctx, "Administrator", d)
		require.NoError(t, err)
	}
	return store
}

func TestSendDeadlineDigests(t *testing.T) {
	store := setupDigestStore(t)
	cfg := &config.Config{AppURL: "http://test.com", EmailTestMode: true}
	core, logs := observer.New(zap.InfoLevel)
	mailer := services.NewMailer(cfg, zap.New(core).Sugar())

	sent := SendDeadlineDigests(store, mailer, cfg, logger.Nop())
	assert.Equal(t, 1, sent, "only Alice has urgent cases and an email")

	emails := logs.FilterMessage("Email logged (test mode, not sent)").All()
	require.Len(t, emails, 1)
	fields := emails[0].ContextMap()
	assert.Equal(t, "alice@example.com", fields["to"])
	assert.Equal(t, "Deadlines: 1 overdue, 1 due soon", fields["subject"])
	text, _ := fields["text"].(string)
	assert.True(t, strings.Contains(text, "OVER-1"))
	assert.True(t, strings.Contains(text, "SOON-1"))
	assert.False(t, strings.Contains(text, "FAR-1"))
}

func TestSendDeadlineDigestsWithoutTestMode(t *testing.T) {
	store := setupDigestStore(t)
	cfg := &config.Config{AppURL: "http://test.com", EmailTestMode: false}
	mailer := services.NewMailer(cfg, logger.Nop())

	// No API key configured, every send fails and nothing counts as sent
	assert.Equal(t, 0, SendDeadlineDigests(store, mailer, cfg, logger.Nop()))
}

func TestStartScheduler(t *testing.T) {
	store := setupDigestStore(t)
	mailer := services.NewMailer(&config.Config{EmailTestMode: true}, logger.Nop())

	t.Run("valid schedule", func(t *testing.T) {
		cfg := &config.Config{DigestSchedule: "0 7 * * 1-5", DigestTimezone: "America/Sao_Paulo"}
		c, err := StartScheduler(store, mailer, cfg, logger.Nop())
		require.NoError(t, err)
		defer c.Stop()
		assert.Len(t, c.Entries(), 1)
	})

	t.Run("invalid timezone", func(t *testing.T) {
		cfg := &config.Config{DigestSchedule: "0 7 * * 1-5", DigestTimezone: "Mars/Olympus"}
		_, err := StartScheduler(store, mailer, cfg, logger.Nop())
		assert.ErrorContains(t, err, "invalid digest timezone")
	})

	t.Run("invalid schedule", func(t *testing.T) {
		cfg := &config.Config{DigestSchedule: "every morning", DigestTimezone: "UTC"}
		_, err := StartScheduler(store, mailer, cfg, logger.Nop())
		assert.ErrorContains(t, err, "invalid digest schedule")
	})
}
