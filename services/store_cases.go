package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"case_desk_app_go/models"
)

// TramitationRequest hands a case to another user
type TramitationRequest struct {
	CaseID     int64
	ToUser     string
	Deadline   string
	Attachment *AttachmentUpload
}

// Cases returns a copy of every case in store order (newest first)
func (s *CaseStore) Cases() []models.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Case, len(s.state.Cases))
	for i := range s.state.Cases {
		out[i] = s.state.Cases[i].Clone()
	}
	return out
}

// GetCase returns a copy of one case
func (s *CaseStore) GetCase(id int64) (models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.caseIndex(id)
	if idx < 0 {
		return models.Case{}, ErrCaseNotFound
	}
	return s.state.Cases[idx].Clone(), nil
}

// Attachment returns one attachment of a case
func (s *CaseStore) Attachment(caseID int64, attachmentID string) (models.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.caseIndex(caseID)
	if idx < 0 {
		return models.Attachment{}, ErrCaseNotFound
	}
	for _, a := range s.state.Cases[idx].Attachments {
		if a.ID == attachmentID {
			return a, nil
		}
	}
	return models.Attachment{}, ErrAttachmentNotFound
}

// AddCase registers a new case. The creation is logged as the first
// tramitation (actor -> assignee) and the assignee becomes co-responsible.
func (s *CaseStore) AddCase(ctx context.Context, actor string, draft models.Case) (models.Case, error) {
	processNumber := strings.TrimSpace(draft.ProcessNumber)
	if processNumber == "" {
		return models.Case{}, fmt.Errorf("%w: processNumber", ErrMissingField)
	}
	priority, err := normalizePriority(draft.Priority, models.PriorityMedium)
	if err != nil {
		return models.Case{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processNumberTaken(processNumber, 0) {
		return models.Case{}, fmt.Errorf("%w: %s", ErrDuplicateProcessNumber, processNumber)
	}

	now := s.now()
	c := draft.Clone()
	c.ID = s.nextCaseID()
	c.DisplayID = models.FormatDisplayID(c.ID)
	c.ProcessNumber = processNumber
	c.Priority = priority
	normalizeCaseDates(&c)
	if strings.TrimSpace(c.Status) == "" && len(s.state.Statuses) > 0 {
		c.Status = s.state.Statuses[0].Name
	}

	c.AssigneeName = strings.TrimSpace(c.AssigneeName)
	c.AssigneeEmail = s.emailFor(c.AssigneeName, c.AssigneeEmail)
	if c.AssigneeName != "" {
		c.CoResponsible = c.AssigneeName
	}
	c.Tramitations = []models.Tramitation{{
		FromUser:  actor,
		ToUser:    c.AssigneeName,
		Timestamp: now,
		Deadline:  c.AssignedDeadline,
	}}
	c.Attachments = []models.Attachment{}

	s.state.Cases = append([]models.Case{c}, s.state.Cases...)
	return c.Clone(), s.persist(ctx)
}

// UpdateCase replaces the editable fields of a case. An assignee change
// appends exactly one tramitation; the ledger and attachments themselves
// cannot be rewritten through an update.
func (s *CaseStore) UpdateCase(ctx context.Context, actor string, updated models.Case) (models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.caseIndex(updated.ID)
	if idx < 0 {
		return models.Case{}, ErrCaseNotFound
	}
	if err := s.validateUpdate(&updated); err != nil {
		return models.Case{}, err
	}
	if s.processNumberTaken(updated.ProcessNumber, updated.ID) {
		return models.Case{}, fmt.Errorf("%w: %s", ErrDuplicateProcessNumber, strings.TrimSpace(updated.ProcessNumber))
	}

	next := s.applyUpdate(actor, s.state.Cases[idx], updated, s.now())
	s.state.Cases[idx] = next
	return next.Clone(), s.persist(ctx)
}

// UpdateMultiple applies UpdateCase semantics to every listed case. The whole
// batch is validated before anything changes and saved once.
func (s *CaseStore) UpdateMultiple(ctx context.Context, actor string, updates []models.Case) ([]models.Case, error) {
	if len(updates) == 0 {
		return []models.Case{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	indexes := make([]int, len(updates))
	finalNumbers := make(map[int64]string, len(s.state.Cases))
	for _, c := range s.state.Cases {
		finalNumbers[c.ID] = models.NormalizeKey(c.ProcessNumber)
	}

	seen := make(map[int64]bool, len(updates))
	for i := range updates {
		u := &updates[i]
		if seen[u.ID] {
			return nil, fmt.Errorf("%w: case %d listed twice", ErrInvalidInput, u.ID)
		}
		seen[u.ID] = true

		indexes[i] = s.caseIndex(u.ID)
		if indexes[i] < 0 {
			return nil, fmt.Errorf("%w: %d", ErrCaseNotFound, u.ID)
		}
		if err := s.validateUpdate(u); err != nil {
			return nil, err
		}
		finalNumbers[u.ID] = models.NormalizeKey(u.ProcessNumber)
	}

	// Uniqueness is checked against the state after the whole batch applies
	counts := make(map[string]int, len(finalNumbers))
	for _, key := range finalNumbers {
		counts[key]++
	}
	for _, u := range updates {
		if counts[models.NormalizeKey(u.ProcessNumber)] > 1 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProcessNumber, strings.TrimSpace(u.ProcessNumber))
		}
	}

	now := s.now()
	result := make([]models.Case, len(updates))
	for i, u := range updates {
		next := s.applyUpdate(actor, s.state.Cases[indexes[i]], u, now)
		s.state.Cases[indexes[i]] = next
		result[i] = next.Clone()
	}
	return result, s.persist(ctx)
}

// DeleteCase removes a case
func (s *CaseStore) DeleteCase(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.caseIndex(id)
	if idx < 0 {
		return ErrCaseNotFound
	}
	s.state.Cases = append(s.state.Cases[:idx:idx], s.state.Cases[idx+1:]...)
	return s.persist(ctx)
}

// DeleteMultiple removes every listed case that exists and reports how many were removed
func (s *CaseStore) DeleteMultiple(ctx context.Context, ids []int64) (int, error) {
	remove := make(map[int64]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Case, 0, len(s.state.Cases))
	for _, c := range s.state.Cases {
		if !remove[c.ID] {
			kept = append(kept, c)
		}
	}
	removed := len(s.state.Cases) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.state.Cases = kept
	return removed, s.persist(ctx)
}

// Tramitate hands a case to another user, optionally attaching a file.
// The attachment is read and encoded before the case is touched, so a
// failed read leaves the case unchanged. Returns the updated case and the
// receiving user.
func (s *CaseStore) Tramitate(ctx context.Context, actor string, req TramitationRequest) (models.Case, models.User, error) {
	now := s.Now()

	var attachment *models.Attachment
	if req.Attachment != nil {
		encoded, err := EncodeAttachment(req.Attachment, actor, now)
		if err != nil {
			return models.Case{}, models.User{}, err
		}
		attachment = &encoded
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.caseIndex(req.CaseID)
	if idx < 0 {
		return models.Case{}, models.User{}, ErrCaseNotFound
	}
	target := s.userByName(req.ToUser)
	if target == nil {
		return models.Case{}, models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, strings.TrimSpace(req.ToUser))
	}

	deadline := NormalizeDate(req.Deadline)
	c := &s.state.Cases[idx]
	c.Tramitations = append(c.Tramitations, models.Tramitation{
		FromUser:  actor,
		ToUser:    target.Name,
		Timestamp: now,
		Deadline:  deadline,
	})
	c.AssigneeName = target.Name
	c.AssigneeEmail = target.Email
	if deadline != "" {
		c.AssignedDeadline = deadline
	}
	if c.CoResponsible == "" {
		c.CoResponsible = target.Name
	}
	if attachment != nil {
		c.Attachments = append(c.Attachments, *attachment)
	}

	return c.Clone(), target.Redacted(), s.persist(ctx)
}

// validateUpdate trims and checks the fields an update may not leave invalid
func (s *CaseStore) validateUpdate(u *models.Case) error {
	u.ProcessNumber = strings.TrimSpace(u.ProcessNumber)
	if u.ProcessNumber == "" {
		return fmt.Errorf("%w: processNumber", ErrMissingField)
	}
	priority, err := normalizePriority(u.Priority, "")
	if err != nil {
		return err
	}
	u.Priority = priority
	return nil
}

// applyUpdate builds the next version of stored from an update. Callers hold the write lock.
func (s *CaseStore) applyUpdate(actor string, stored, updated models.Case, now time.Time) models.Case {
	next := updated
	next.ID = stored.ID
	next.DisplayID = stored.DisplayID
	next.Tramitations = append([]models.Tramitation{}, stored.Tramitations...)
	next.Attachments = append([]models.Attachment{}, stored.Attachments...)
	if next.Priority == "" {
		next.Priority = stored.Priority
	}
	normalizeCaseDates(&next)

	next.AssigneeName = strings.TrimSpace(next.AssigneeName)
	if next.CoResponsible == "" {
		next.CoResponsible = stored.CoResponsible
	}

	if next.AssigneeName != stored.AssigneeName {
		next.Tramitations = append(next.Tramitations, models.Tramitation{
			FromUser:  actor,
			ToUser:    next.AssigneeName,
			Timestamp: now,
			Deadline:  next.AssignedDeadline,
		})
		next.AssigneeEmail = s.emailFor(next.AssigneeName, next.AssigneeEmail)
		if next.CoResponsible == "" {
			next.CoResponsible = next.AssigneeName
		}
	}
	return next
}

func (s *CaseStore) caseIndex(id int64) int {
	for i := range s.state.Cases {
		if s.state.Cases[i].ID == id {
			return i
		}
	}
	return -1
}

// processNumberTaken reports whether another case (not exceptID) uses the number
func (s *CaseStore) processNumberTaken(processNumber string, exceptID int64) bool {
	key := models.NormalizeKey(processNumber)
	for _, c := range s.state.Cases {
		if c.ID != exceptID && models.NormalizeKey(c.ProcessNumber) == key {
			return true
		}
	}
	return false
}

// emailFor returns the profile email of the named user, or fallback when
// no user has that name. An empty name clears the email.
func (s *CaseStore) emailFor(name, fallback string) string {
	if name == "" {
		return ""
	}
	if u := s.userByName(name); u != nil {
		return u.Email
	}
	return strings.TrimSpace(fallback)
}

func normalizeCaseDates(c *models.Case) {
	c.AppointmentDate = NormalizeDate(c.AppointmentDate)
	c.StartDate = NormalizeDate(c.StartDate)
	c.AssignedDeadline = NormalizeDate(c.AssignedDeadline)
	c.FinalDeadline = NormalizeDate(c.FinalDeadline)
}

func normalizePriority(priority, fallback string) (string, error) {
	p := strings.TrimSpace(priority)
	if p == "" {
		return fallback, nil
	}
	canonical := strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	if models.IsValidPriority(canonical) {
		return canonical, nil
	}
	return "", fmt.Errorf("%w: priority %q", ErrInvalidInput, priority)
}
