package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// Session binds a login token to a user id
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// SessionManager keeps sessions in memory with a sliding TTL.
// Sessions do not survive a restart.
type SessionManager struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewSessionManager creates a session store whose entries expire after ttl
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		cache: cache.New(ttl, ttl/2+time.Minute),
		ttl:   ttl,
	}
}

// Create opens a new session for the user
func (m *SessionManager) Create(userID int64) (*Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	session := &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	m.cache.Set(token, session, cache.DefaultExpiration)
	return session, nil
}

// Validate returns the session for token and extends its lifetime
func (m *SessionManager) Validate(token string) (*Session, error) {
	item, found := m.cache.Get(token)
	if !found {
		return nil, fmt.Errorf("session not found")
	}
	session := *item.(*Session)
	session.ExpiresAt = time.Now().Add(m.ttl)
	m.cache.Set(token, &session, cache.DefaultExpiration)
	return &session, nil
}

// Delete ends a session (logout)
func (m *SessionManager) Delete(token string) {
	m.cache.Delete(token)
}

// DeleteUserSessions ends every session of a user. Used when the user is
// deleted or loses their password.
func (m *SessionManager) DeleteUserSessions(userID int64) int {
	return m.DeleteOtherSessions(userID, "")
}

// DeleteOtherSessions ends every session of a user except the one with token keep
func (m *SessionManager) DeleteOtherSessions(userID int64, keep string) int {
	removed := 0
	for token, item := range m.cache.Items() {
		if s, ok := item.Object.(*Session); ok && s.UserID == userID && token != keep {
			m.cache.Delete(token)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	return m.cache.ItemCount()
}
