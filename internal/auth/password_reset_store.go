package auth

import (
	"strings"
	"sync"
	"time"
)

// DefaultResetTTL is the fallback validity window for password reset tokens.
const DefaultResetTTL = time.Hour

type resetEntry struct {
	userID    string
	token     string
	expiresAt time.Time
}

// PasswordResetStore keeps outstanding password reset tokens keyed by
// lower-cased email. At most one token is valid per email; a new request
// replaces the previous token.
type PasswordResetStore struct {
	mu      sync.Mutex
	entries map[string]resetEntry
	now     func() time.Time
	ttl     time.Duration
}

// PasswordResetStoreConfig describes tunable behaviour for the store.
type PasswordResetStoreConfig struct {
	TokenTTL time.Duration
	Clock    func() time.Time
}

// NewPasswordResetStore constructs an empty store.
func NewPasswordResetStore(cfg PasswordResetStoreConfig) *PasswordResetStore {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &PasswordResetStore{
		entries: make(map[string]resetEntry),
		now:     clock,
		ttl:     ttl,
	}
}

// Put stores a reset token for the email, replacing any previous one.
func (s *PasswordResetStore) Put(email, userID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[registrationKey(email)] = resetEntry{
		userID:    userID,
		token:     token,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Consume verifies the token for an email under the store lock. On a match
// the entry is removed so a token can reset the password at most once.
// Expired entries are removed as well. The owning user id is returned on a
// match.
func (s *PasswordResetStore) Consume(email, token string) (string, ConsumeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := registrationKey(email)
	entry, ok := s.entries[key]
	if !ok {
		return "", ConsumeNoPending
	}

	// A token stays valid through its expiry instant; only after that is it stale.
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", ConsumeExpired
	}

	if entry.token != strings.TrimSpace(token) {
		return "", ConsumeMismatch
	}

	delete(s.entries, key)
	return entry.userID, ConsumeOK
}

// Delete removes any outstanding reset token for the email.
func (s *PasswordResetStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, registrationKey(email))
}

// SweepExpired removes every entry whose token has expired and returns the
// number removed. Called periodically by the maintenance cleaner.
func (s *PasswordResetStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// TTL reports the configured validity window for reset tokens.
func (s *PasswordResetStore) TTL() time.Duration {
	return s.ttl
}

// Len reports the number of outstanding reset tokens.
func (s *PasswordResetStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
