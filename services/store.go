package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"case_desk_app_go/models"

	"go.uber.org/zap"
)

// CaseStore owns the application state: cases with their tramitation
// ledgers and attachments, users and lookups. Every mutating command
// validates first, applies, then saves the whole snapshot through the
// gateway. A failed save returns ErrSaveFailed and keeps the change in memory.
type CaseStore struct {
	mu         sync.RWMutex
	state      *models.Snapshot
	lastCaseID int64
	gateway    Gateway
	log        *zap.SugaredLogger
	now        func() time.Time
}

// NewCaseStore creates a store over an already loaded snapshot
func NewCaseStore(snapshot *models.Snapshot, gateway Gateway, log *zap.SugaredLogger) *CaseStore {
	if snapshot == nil {
		snapshot = models.DefaultSnapshot()
	}
	state := snapshot.Clone()
	state.Normalize()

	return &CaseStore{
		state:      state,
		lastCaseID: maxCaseID(state.Cases),
		gateway:    gateway,
		log:        log,
		now:        time.Now,
	}
}

// SetClock replaces the time source
func (s *CaseStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Now returns the store's current time
func (s *CaseStore) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// Backend names the persistence gateway
func (s *CaseStore) Backend() string {
	return s.gateway.Name()
}

// Snapshot returns a deep copy of the full state, password hashes included
func (s *CaseStore) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// PublicSnapshot returns a deep copy with password hashes removed
func (s *CaseStore) PublicSnapshot() *models.Snapshot {
	snap := s.Snapshot()
	for i := range snap.Users {
		snap.Users[i] = snap.Users[i].Redacted()
	}
	return snap
}

// Replace swaps the whole state for an incoming document. Plaintext
// passwords are hashed; a known user sent without a password keeps the
// stored hash.
func (s *CaseStore) Replace(ctx context.Context, incoming *models.Snapshot) error {
	if incoming == nil {
		return fmt.Errorf("%w: empty snapshot", ErrInvalidInput)
	}
	next := incoming.Clone()
	next.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make(map[int64]string, len(s.state.Users))
	for _, u := range s.state.Users {
		stored[u.ID] = u.Password
	}
	for i := range next.Users {
		u := &next.Users[i]
		switch {
		case u.Password == "":
			u.Password = stored[u.ID]
		case !IsPasswordHash(u.Password):
			hash, err := HashPassword(u.Password)
			if err != nil {
				return err
			}
			u.Password = hash
		}
	}
	for i := range next.Cases {
		if next.Cases[i].DisplayID == "" {
			next.Cases[i].DisplayID = models.FormatDisplayID(next.Cases[i].ID)
		}
	}

	s.state = next
	if id := maxCaseID(next.Cases); id > s.lastCaseID {
		s.lastCaseID = id
	}
	return s.persist(ctx)
}

// History lists stored snapshot versions when the gateway keeps them
func (s *CaseStore) History(ctx context.Context) ([]SnapshotInfo, error) {
	hg, ok := s.gateway.(HistoryGateway)
	if !ok {
		return nil, fmt.Errorf("%w: backend %s keeps no history", ErrInvalidInput, s.gateway.Name())
	}
	return hg.History(ctx)
}

// Restore replaces the state with a stored version. The restore itself is
// saved as a new version.
func (s *CaseStore) Restore(ctx context.Context, version int64) error {
	hg, ok := s.gateway.(HistoryGateway)
	if !ok {
		return fmt.Errorf("%w: backend %s keeps no history", ErrInvalidInput, s.gateway.Name())
	}
	snapshot, err := hg.LoadVersion(ctx, version)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = snapshot
	if id := maxCaseID(snapshot.Cases); id > s.lastCaseID {
		s.lastCaseID = id
	}
	s.log.Infow("Snapshot restored", "version", version)
	return s.persist(ctx)
}

// persist saves the current state. Callers hold the write lock.
func (s *CaseStore) persist(ctx context.Context) error {
	if err := s.gateway.Save(ctx, s.state); err != nil {
		s.log.Errorw("Failed to save snapshot", "backend", s.gateway.Name(), "error", err)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

// nextCaseID hands out the next numeric case id. Callers hold the write lock.
func (s *CaseStore) nextCaseID() int64 {
	s.lastCaseID++
	return s.lastCaseID
}

func maxCaseID(cases []models.Case) int64 {
	var max int64
	for _, c := range cases {
		if c.ID > max {
			max = c.ID
		}
	}
	return max
}
