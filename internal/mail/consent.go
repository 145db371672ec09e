package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultGmailScopes are requested during consent; gmail.send is the only
// permission the mailer needs.
var DefaultGmailScopes = []string{"https://www.googleapis.com/auth/gmail.send"}

// ConsentConfig configures the interactive authorization-code flow.
type ConsentConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// Endpoint overrides the Google OAuth endpoint, used by tests.
	Endpoint *oauth2.Endpoint
}

// ConsentFlow exchanges a browser-driven authorization code for a credential
// and persists it. Offline access is requested so the stored credential can
// be refreshed without further interaction.
type ConsentFlow struct {
	conf  oauth2.Config
	store *CredentialStore
}

// NewConsentFlow wires the flow to the credential store.
func NewConsentFlow(store *CredentialStore, cfg ConsentConfig) (*ConsentFlow, error) {
	if store == nil {
		return nil, errors.New("consent flow: credential store is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("consent flow: client id and secret are required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultGmailScopes
	}

	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	return &ConsentFlow{
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		store: store,
	}, nil
}

// AuthURL returns the URL the operator must visit to grant consent.
func (f *ConsentFlow) AuthURL(state string) string {
	return f.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the callback code for tokens and persists the credential in
// both storage formats.
func (f *ConsentFlow) Exchange(ctx context.Context, code string) (*Credential, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if code == "" {
		return nil, errors.New("consent flow: authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.store.httpClient)
	token, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("consent flow: exchange code: %w", err)
	}

	cred := &Credential{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     f.conf.Endpoint.TokenURL,
		ClientID:     f.conf.ClientID,
		ClientSecret: f.conf.ClientSecret,
		Scopes:       f.conf.Scopes,
		Expiry:       token.Expiry,
	}

	if err := f.store.SaveBoth(cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// CredentialStatus summarises the stored credential for diagnostics.
type CredentialStatus struct {
	Present         bool      `json:"present"`
	HasLegacy       bool      `json:"has_legacy"`
	HasJSON         bool      `json:"has_json"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	Expired         bool      `json:"expired"`
	Expiry          time.Time `json:"expiry"`
	Scopes          []string  `json:"scopes,omitempty"`
}

// Status inspects both storage formats without refreshing anything.
func (s *CredentialStore) Status() CredentialStatus {
	status := CredentialStatus{}

	legacy, legacyErr := s.readLegacy()
	status.HasLegacy = legacyErr == nil

	structured, jsonErr := s.readJSON()
	status.HasJSON = jsonErr == nil

	cred := legacy
	if cred == nil {
		cred = structured
	}
	if cred == nil {
		return status
	}

	status.Present = true
	status.HasRefreshToken = cred.RefreshToken != ""
	status.Expired = cred.Expired(s.now())
	status.Expiry = cred.Expiry
	status.Scopes = cred.Scopes
	return status
}
