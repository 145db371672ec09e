package auth

import (
	"strings"
	"sync"
	"time"
)

// DefaultCodeTTL is the fallback validity window for verification codes.
const DefaultCodeTTL = 10 * time.Minute

// PendingRegistration holds the submitted account details while the email
// address awaits verification. The password is stored already hashed.
type PendingRegistration struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

type pendingEntry struct {
	registration PendingRegistration
	code         string
	expiresAt    time.Time
}

// RegistrationStore keeps pending registrations and their verification codes
// keyed by lower-cased email. It replaces server-session storage so entries
// can be swept independently of any HTTP session lifetime.
type RegistrationStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	now     func() time.Time
	ttl     time.Duration
}

// RegistrationStoreConfig describes tunable behaviour for the store.
type RegistrationStoreConfig struct {
	CodeTTL time.Duration
	Clock   func() time.Time
}

// NewRegistrationStore constructs an empty store.
func NewRegistrationStore(cfg RegistrationStoreConfig) *RegistrationStore {
	ttl := cfg.CodeTTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &RegistrationStore{
		entries: make(map[string]pendingEntry),
		now:     clock,
		ttl:     ttl,
	}
}

func registrationKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Put stores a pending registration together with its verification code,
// replacing any previous entry for the same email.
func (s *RegistrationStore) Put(reg PendingRegistration, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	reg.CreatedAt = now
	s.entries[registrationKey(reg.Email)] = pendingEntry{
		registration: reg,
		code:         code,
		expiresAt:    now.Add(s.ttl),
	}
}

// Get returns the pending registration for an email without consuming it.
func (s *RegistrationStore) Get(email string) (PendingRegistration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[registrationKey(email)]
	if !ok {
		return PendingRegistration{}, false
	}
	return entry.registration, true
}

// ReplaceCode regenerates the code and expiry for an existing pending
// registration. It reports false when no registration is pending.
func (s *RegistrationStore) ReplaceCode(email, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := registrationKey(email)
	entry, ok := s.entries[key]
	if !ok {
		return false
	}

	entry.code = code
	entry.expiresAt = s.now().Add(s.ttl)
	s.entries[key] = entry
	return true
}

// ConsumeResult describes the outcome of a Consume call.
type ConsumeResult int

const (
	// ConsumeOK means the code matched and the entry was removed.
	ConsumeOK ConsumeResult = iota
	// ConsumeNoPending means no registration is pending for the email.
	ConsumeNoPending
	// ConsumeExpired means the code had expired; the entry was removed.
	ConsumeExpired
	// ConsumeMismatch means the code did not match; the entry was kept.
	ConsumeMismatch
)

// Consume verifies the code for an email under the store lock. On a match the
// entry is removed so a second call cannot succeed for the same registration.
// Expired entries are removed as well, forcing the flow to restart.
func (s *RegistrationStore) Consume(email, code string) (PendingRegistration, ConsumeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := registrationKey(email)
	entry, ok := s.entries[key]
	if !ok {
		return PendingRegistration{}, ConsumeNoPending
	}

	// A code stays valid through its expiry instant; only after that is it stale.
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return PendingRegistration{}, ConsumeExpired
	}

	if entry.code != code {
		return PendingRegistration{}, ConsumeMismatch
	}

	delete(s.entries, key)
	return entry.registration, ConsumeOK
}

// Delete removes any pending registration for the email. Deleting an absent
// entry is not an error.
func (s *RegistrationStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, registrationKey(email))
}

// SweepExpired removes every entry whose code has expired and returns the
// number removed. Called periodically by the maintenance cleaner.
func (s *RegistrationStore) SweepExpired() int {
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

// TTL reports the configured validity window for verification codes.
func (s *RegistrationStore) TTL() time.Duration {
	return s.ttl
}

// Len reports the number of pending registrations.
func (s *RegistrationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
