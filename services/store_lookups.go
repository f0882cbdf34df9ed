package services

import (
	"context"
	"fmt"
	"strings"

	"case_desk_app_go/models"
)

// Lookups returns the tribunals, phases or statuses
func (s *CaseStore) Lookups(kind string) ([]models.Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.state.Lookups(kind)
	if list == nil {
		return nil, fmt.Errorf("%w: lookup kind %q", ErrInvalidInput, kind)
	}
	return append([]models.Lookup{}, (*list)...), nil
}

// AddLookup creates a lookup entry. Names are unique within a kind.
func (s *CaseStore) AddLookup(ctx context.Context, kind, name string) (models.Lookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Lookup{}, fmt.Errorf("%w: name", ErrMissingField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.state.Lookups(kind)
	if list == nil {
		return models.Lookup{}, fmt.Errorf("%w: lookup kind %q", ErrInvalidInput, kind)
	}
	if lookupNameTaken(*list, name, 0) {
		return models.Lookup{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	entry := models.Lookup{Name: name}
	for _, l := range *list {
		if l.ID > entry.ID {
			entry.ID = l.ID
		}
	}
	entry.ID++

	*list = append(*list, entry)
	return entry, s.persist(ctx)
}

// RenameLookup changes the name of a lookup entry. Cases reference lookups
// by name and keep the old name.
func (s *CaseStore) RenameLookup(ctx context.Context, kind string, id int64, name string) (models.Lookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Lookup{}, fmt.Errorf("%w: name", ErrMissingField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.state.Lookups(kind)
	if list == nil {
		return models.Lookup{}, fmt.Errorf("%w: lookup kind %q", ErrInvalidInput, kind)
	}
	idx := lookupIndex(*list, id)
	if idx < 0 {
		return models.Lookup{}, ErrLookupNotFound
	}
	if lookupNameTaken(*list, name, id) {
		return models.Lookup{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	(*list)[idx].Name = name
	return (*list)[idx], s.persist(ctx)
}

// DeleteLookup removes a lookup entry. Cases still using the name keep it.
func (s *CaseStore) DeleteLookup(ctx context.Context, kind string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.state.Lookups(kind)
	if list == nil {
		return fmt.Errorf("%w: lookup kind %q", ErrInvalidInput, kind)
	}
	idx := lookupIndex(*list, id)
	if idx < 0 {
		return ErrLookupNotFound
	}

	*list = append((*list)[:idx:idx], (*list)[idx+1:]...)
	return s.persist(ctx)
}

func lookupIndex(list []models.Lookup, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func lookupNameTaken(list []models.Lookup, name string, exceptID int64) bool {
	key := models.NormalizeKey(name)
	for _, l := range list {
		if l.ID != exceptID && models.NormalizeKey(l.Name) == key {
			return true
		}
	}
	return false
}
