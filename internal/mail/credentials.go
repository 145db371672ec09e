package mail

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/bcastudynepal/portal/pkg/logger"
)

// ErrConsentRequired signals that no usable credential exists and the
// interactive authorization flow must be run before mail can be sent.
var ErrConsentRequired = errors.New("mail: oauth consent required")

// Credential is the OAuth2 token material authorizing Gmail API calls. The
// JSON field names are fixed: they are the on-disk interchange format shared
// with earlier deployments.
type Credential struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry"`
}

// Expired reports whether the access token has passed its expiry. A zero
// expiry is treated as expired so such credentials are refreshed before use.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil {
		return true
	}
	return !c.Expiry.After(now)
}

// Valid reports whether the credential can authorize a request right now.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.Token != "" && !c.Expired(now)
}

// StoreConfig describes where and how credentials are persisted.
type StoreConfig struct {
	// LegacyPath holds the original serialized blob. It is read first and
	// kept up to date so older deployments sharing the file keep working.
	LegacyPath string
	// JSONPath holds the structured representation.
	JSONPath string
	// BackupPath receives the legacy snapshot during Migrate. Defaults to
	// LegacyPath + ".bak".
	BackupPath string
	// LockPath guards refresh-and-persist across processes. Defaults to
	// JSONPath + ".lock".
	LockPath string

	HTTPClient *http.Client
	Timeout    time.Duration
	Clock      func() time.Time
}

// CredentialStore loads, refreshes and persists the shared mail credential.
// The credential lives in two on-disk formats at once; writes always update
// the structured form first and never delete the legacy form.
type CredentialStore struct {
	legacyPath string
	jsonPath   string
	backupPath string
	lock       *fileLock

	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// NewCredentialStore validates the configuration and builds a store.
func NewCredentialStore(cfg StoreConfig) (*CredentialStore, error) {
	if cfg.JSONPath == "" {
		return nil, errors.New("credential store: json path is required")
	}
	if cfg.LegacyPath == "" {
		return nil, errors.New("credential store: legacy path is required")
	}

	backup := cfg.BackupPath
	if backup == "" {
		backup = cfg.LegacyPath + ".bak"
	}

	lockPath := cfg.LockPath
	if lockPath == "" {
		lockPath = cfg.JSONPath + ".lock"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &CredentialStore{
		legacyPath: cfg.LegacyPath,
		jsonPath:   cfg.JSONPath,
		backupPath: backup,
		lock:       newFileLock(lockPath),
		httpClient: client,
		timeout:    timeout,
		now:        clock,
		log:        logger.WithModule("mail.credentials"),
	}, nil
}

// Load returns a credential ready for use. The legacy form is preferred, the
// structured form is the fallback. An expired credential with a refresh token
// is refreshed against the token endpoint and persisted in both formats; one
// without a refresh path fails with ErrConsentRequired.
func (s *CredentialStore) Load(ctx context.Context) (*Credential, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cred := s.read()
	if cred == nil {
		return nil, ErrConsentRequired
	}

	if cred.Valid(s.now()) {
		return cred, nil
	}

	if cred.RefreshToken == "" {
		return nil, ErrConsentRequired
	}

	return s.refreshAndPersist(ctx)
}

// read returns the stored credential without refreshing, or nil when neither
// format is readable.
func (s *CredentialStore) read() *Credential {
	if cred, err := s.readLegacy(); err == nil {
		return cred
	}
	if cred, err := s.readJSON(); err == nil {
		return cred
	}
	return nil
}

// refreshAndPersist serialises the refresh across processes. Another worker
// may have refreshed while we waited for the lock, so the credential is
// re-read before the token endpoint is contacted.
func (s *CredentialStore) refreshAndPersist(ctx context.Context) (*Credential, error) {
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential store: acquire lock: %w", err)
	}
	defer release()

	cred := s.read()
	if cred == nil {
		return nil, ErrConsentRequired
	}
	if cred.Valid(s.now()) {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return nil, ErrConsentRequired
	}

	refreshed, err := s.refresh(ctx, cred)
	if err != nil {
		return nil, err
	}

	if err := s.SaveBoth(refreshed); err != nil {
		return nil, err
	}

	s.log.Info("credential refreshed", zap.Time("expiry", refreshed.Expiry))
	return refreshed, nil
}

func (s *CredentialStore) refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	conf := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Scopes:       cred.Scopes,
		Endpoint:     oauth2.Endpoint{TokenURL: cred.TokenURI},
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	seed := &oauth2.Token{
		RefreshToken: cred.RefreshToken,
		Expiry:       s.now().Add(-time.Minute),
	}

	token, err := conf.TokenSource(ctx, seed).Token()
	if err != nil {
		return nil, fmt.Errorf("credential store: refresh token: %w", err)
	}

	updated := *cred
	updated.Token = token.AccessToken
	updated.Expiry = token.Expiry
	if token.RefreshToken != "" {
		updated.RefreshToken = token.RefreshToken
	}
	return &updated, nil
}

// SaveBoth persists the credential in both formats: structured JSON first,
// then the legacy blob. Writes go through a temp file and rename so a crash
// never leaves a half-written credential behind.
func (s *CredentialStore) SaveBoth(cred *Credential) error {
	if cred == nil {
		return errors.New("credential store: credential is nil")
	}

	payload, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("credential store: encode json: %w", err)
	}
	if err := writeFileAtomic(s.jsonPath, payload); err != nil {
		return fmt.Errorf("credential store: write json: %w", err)
	}

	var blob bytes.Buffer
	if err := gob.NewEncoder(&blob).Encode(cred); err != nil {
		return fmt.Errorf("credential store: encode legacy: %w", err)
	}
	if err := writeFileAtomic(s.legacyPath, blob.Bytes()); err != nil {
		return fmt.Errorf("credential store: write legacy: %w", err)
	}

	return nil
}

// Migrate copies the legacy credential into the structured format. The legacy
// file is snapshotted first; a failed write restores the snapshot so the
// migration can never strand the deployment without a readable credential.
// The legacy file itself is retired by a later cleanup, not here.
func (s *CredentialStore) Migrate(ctx context.Context) error {
	cred, err := s.readLegacy()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("credential store: read legacy: %w", err)
	}

	if err := copyFile(s.legacyPath, s.backupPath); err != nil {
		return fmt.Errorf("credential store: snapshot legacy: %w", err)
	}

	payload, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("credential store: encode json: %w", err)
	}

	if err := writeFileAtomic(s.jsonPath, payload); err != nil {
		if restoreErr := copyFile(s.backupPath, s.legacyPath); restoreErr != nil {
			return fmt.Errorf("credential store: migrate failed (%v) and restore failed: %w", err, restoreErr)
		}
		return fmt.Errorf("credential store: write json: %w", err)
	}

	s.log.Info("credential migrated to structured format", zap.String("path", s.jsonPath))
	return nil
}

func (s *CredentialStore) readLegacy() (*Credential, error) {
	file, err := os.Open(s.legacyPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cred Credential
	if err := gob.NewDecoder(file).Decode(&cred); err != nil {
		return nil, fmt.Errorf("credential store: decode legacy: %w", err)
	}
	return &cred, nil
}

func (s *CredentialStore) readJSON() (*Credential, error) {
	data, err := os.ReadFile(s.jsonPath)
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("credential store: decode json: %w", err)
	}
	return &cred, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if writeErr != nil {
			return writeErr
		}
		return closeErr
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return writeFileAtomic(dst, data)
}
