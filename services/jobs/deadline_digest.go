package jobs

import (
	"fmt"
	"time"

	"case_desk_app_go/config"
	"case_desk_app_go/services"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SendDeadlineDigests emails every user the overdue and due-soon active
// cases assigned to them. Returns how many emails were sent.
func SendDeadlineDigests(store *services.CaseStore, mailer *services.Mailer, cfg *config.Config, log *zap.SugaredLogger) int {
	log.Infow("Starting deadline digest job")
	now := store.Now()

	sent := 0
	for _, user := range store.Users() {
		if user.Email == "" {
			continue
		}
		cases, err := store.ListCases(services.CaseFilter{View: services.ViewActive, Assignee: user.Name})
		if err != nil {
			log.Errorw("Failed to list cases for digest", "user", user.Name, "error", err)
			continue
		}

		email, err := services.BuildDeadlineDigestEmail(user, cases, cfg.AppURL, now)
		if err != nil {
			log.Errorw("Failed to build digest", "user", user.Name, "error", err)
			continue
		}
		if email == nil {
			continue
		}
		if err := mailer.Send(email); err != nil {
			log.Errorw("Failed to send digest", "user", user.Name, "error", err)
			continue
		}
		sent++
	}

	log.Infow("Deadline digest job completed", "sent", sent)
	return sent
}

// StartScheduler schedules the deadline digest. The caller stops the
// returned cron on shutdown.
func StartScheduler(store *services.CaseStore, mailer *services.Mailer, cfg *config.Config, log *zap.SugaredLogger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.DigestTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid digest timezone %q: %w", cfg.DigestTimezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.DigestSchedule, func() {
		SendDeadlineDigests(store, mailer, cfg, log)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", cfg.DigestSchedule, err)
	}

	c.Start()
	log.Infow("Scheduler started", "schedule", cfg.DigestSchedule, "timezone", cfg.DigestTimezone)
	return c, nil
}
