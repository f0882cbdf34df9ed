package services

import (
	"context"
	"fmt"
	"strings"

	"case_desk_app_go/models"
)

// UserInput carries the fields of a user create or update. A nil Password
// keeps the stored one on update; an empty one removes it.
type UserInput struct {
	Name       string
	Email      string
	Permission string
	Password   *string
}

// Users returns every user without password hashes
func (s *CaseStore) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, len(s.state.Users))
	for i, u := range s.state.Users {
		out[i] = u.Redacted()
	}
	return out
}

// GetUser returns one user without the password hash
func (s *CaseStore) GetUser(id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.userIndex(id)
	if idx < 0 {
		return models.User{}, ErrUserNotFound
	}
	return s.state.Users[idx].Redacted(), nil
}

// FindUserByName looks a user up by name (trimmed, case-insensitive)
func (s *CaseStore) FindUserByName(name string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.userByName(name); u != nil {
		return u.Redacted(), true
	}
	return models.User{}, false
}

// Authenticate checks an email and password. Users without a password log
// in with an empty one.
func (s *CaseStore) Authenticate(email, password string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := models.NormalizeKey(email)
	for _, u := range s.state.Users {
		if models.NormalizeKey(u.Email) != key {
			continue
		}
		if !u.HasPassword() {
			if password == "" {
				return u.Redacted(), nil
			}
			return models.User{}, ErrInvalidCredentials
		}
		if CheckPassword(password, u.Password) {
			return u.Redacted(), nil
		}
		return models.User{}, ErrInvalidCredentials
	}
	return models.User{}, ErrInvalidCredentials
}

// AddUser creates a user. Name and email must be unique.
func (s *CaseStore) AddUser(ctx context.Context, in UserInput) (models.User, error) {
	user, err := buildUser(in, models.PermissionStandard)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUserUnique(user, 0); err != nil {
		return models.User{}, err
	}
	for _, u := range s.state.Users {
		if u.ID > user.ID {
			user.ID = u.ID
		}
	}
	user.ID++

	s.state.Users = append(s.state.Users, user)
	return user.Redacted(), s.persist(ctx)
}

// UpdateUser edits a user. Renaming a user does not rewrite the assignee
// names already stored on cases.
func (s *CaseStore) UpdateUser(ctx context.Context, id int64, in UserInput) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(id)
	if idx < 0 {
		return models.User{}, ErrUserNotFound
	}
	stored := s.state.Users[idx]

	user, err := buildUser(in, stored.Permission)
	if err != nil {
		return models.User{}, err
	}
	user.ID = id
	if in.Password == nil {
		user.Password = stored.Password
	}
	if err := s.checkUserUnique(user, id); err != nil {
		return models.User{}, err
	}
	if stored.IsAdmin() && !user.IsAdmin() && s.adminCount() == 1 {
		return models.User{}, fmt.Errorf("%w: at least one admin is required", ErrInvalidInput)
	}

	s.state.Users[idx] = user
	return user.Redacted(), s.persist(ctx)
}

// DeleteUser removes a user. The last admin cannot be removed.
func (s *CaseStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(id)
	if idx < 0 {
		return ErrUserNotFound
	}
	if s.state.Users[idx].IsAdmin() && s.adminCount() == 1 {
		return fmt.Errorf("%w: at least one admin is required", ErrInvalidInput)
	}

	s.state.Users = append(s.state.Users[:idx:idx], s.state.Users[idx+1:]...)
	return s.persist(ctx)
}

func buildUser(in UserInput, defaultPermission string) (models.User, error) {
	user := models.User{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Permission: strings.ToLower(strings.TrimSpace(in.Permission)),
	}
	if user.Name == "" {
		return models.User{}, fmt.Errorf("%w: name", ErrMissingField)
	}
	if user.Email == "" {
		return models.User{}, fmt.Errorf("%w: email", ErrMissingField)
	}
	if user.Permission == "" {
		user.Permission = defaultPermission
	}
	if !models.IsValidPermission(user.Permission) {
		return models.User{}, fmt.Errorf("%w: permission %q", ErrInvalidInput, in.Permission)
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return models.User{}, err
		}
		user.Password = hash
	}
	return user, nil
}

func (s *CaseStore) checkUserUnique(user models.User, exceptID int64) error {
	email := models.NormalizeKey(user.Email)
	name := models.NormalizeKey(user.Name)
	for _, u := range s.state.Users {
		if u.ID == exceptID {
			continue
		}
		if models.NormalizeKey(u.Email) == email {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, user.Email)
		}
		if models.NormalizeKey(u.Name) == name {
			return fmt.Errorf("%w: %s", ErrDuplicateName, user.Name)
		}
	}
	return nil
}

func (s *CaseStore) userIndex(id int64) int {
	for i := range s.state.Users {
		if s.state.Users[i].ID == id {
			return i
		}
	}
	return -1
}

// userByName returns a pointer into the state. Callers hold the lock.
func (s *CaseStore) userByName(name string) *models.User {
	key := models.NormalizeKey(name)
	if key == "" {
		return nil
	}
	for i := range s.state.Users {
		if models.NormalizeKey(s.state.Users[i].Name) == key {
			return &s.state.Users[i]
		}
	}
	return nil
}

func (s *CaseStore) adminCount() int {
	n := 0
	for _, u := range s.state.Users {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}
