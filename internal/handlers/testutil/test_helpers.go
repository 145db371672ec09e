package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/api"
	"github.com/bcastudynepal/portal/internal/app"
	iauth "github.com/bcastudynepal/portal/internal/auth"
	sharedtestutil "github.com/bcastudynepal/portal/internal/database/testutil"
	"github.com/bcastudynepal/portal/internal/middleware"
	"github.com/bcastudynepal/portal/internal/models"
	"github.com/bcastudynepal/portal/pkg/crypto"
	"github.com/bcastudynepal/portal/pkg/mail"
	"github.com/bcastudynepal/portal/pkg/response"
)

// CapturingMailer records outbound messages so registration tests can read
// the verification code that would have been emailed.
type CapturingMailer struct {
	Messages []mail.Message
}

func (m *CapturingMailer) Send(_ context.Context, msg mail.Message) error {
	m.Messages = append(m.Messages, msg)
	return nil
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
	Mailer *CapturingMailer
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			Session: app.SessionSettings{
				RefreshTTL:    24 * time.Hour,
				RefreshLength: 48,
			},
		},
		Registration: app.RegistrationSettings{
			AppName: "Portal Test",
			Debug:   true,
		},
	}
	cfg.Monitoring.Health.Enabled = true
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, cfg.Auth.SessionServiceConfig())
	require.NoError(t, err)

	mailer := &CapturingMailer{}
	regStore := iauth.NewRegistrationStore(cfg.Registration.StoreConfig())
	regSvc, err := iauth.NewRegistrationService(db, regStore, mailer, sessionSvc, cfg.RegistrationServiceConfig())
	require.NoError(t, err)

	resetStore := iauth.NewPasswordResetStore(cfg.Registration.ResetStoreConfig())
	resetSvc, err := iauth.NewPasswordResetService(db, resetStore, mailer, cfg.PasswordResetServiceConfig())
	require.NoError(t, err)

	router, err := api.NewRouter(api.Deps{
		DB:            db,
		Config:        cfg,
		JWT:           jwtSvc,
		Sessions:      sessionSvc,
		Registrations: regSvc,
		Resets:        resetSvc,
		RateStore:     middleware.NewMemoryRateStore(),
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Mailer: mailer,
	}
}

// CreateUser inserts a new active verified user with a random username and
// returns the record. The password is stored hashed.
func (e *Env) CreateUser(password string) *models.User {
	return e.createUser(password, false)
}

// CreateAdmin inserts a new active administrator account.
func (e *Env) CreateAdmin(password string) *models.User {
	return e.createUser(password, true)
}

func (e *Env) createUser(password string, admin bool) *models.User {
	e.T.Helper()

	username := "user-" + uuid.NewString()[:8]
	hashed, err := crypto.HashPassword(password)
	require.NoError(e.T, err)

	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   hashed,
		IsActive:   true,
		IsVerified: true,
		IsAdmin:    admin,
	}

	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// TokenPair mirrors the token payload returned by auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
	IsActive  bool   `json:"is_active"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	Tokens TokenPair   `json:"tokens"`
	User   UserPayload `json:"user"`
}

// Login authenticates with a username or email and returns the issued tokens.
func (e *Env) Login(identifier, password string) LoginResult {
	e.T.Helper()

	payload := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	w := e.Request(http.MethodPost, "/api/auth/login", payload, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Tokens.AccessToken)
	require.NotEmpty(e.T, result.Tokens.RefreshToken)

	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
