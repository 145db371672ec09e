package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/mail"
	"github.com/bcastudynepal/portal/pkg/crypto"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// GmailOAuthHandler drives the one-time consent flow that authorises the
// portal's outbound Gmail account, plus credential inspection and migration.
type GmailOAuthHandler struct {
	flow  *mail.ConsentFlow
	store *mail.CredentialStore
}

func NewGmailOAuthHandler(flow *mail.ConsentFlow, store *mail.CredentialStore) *GmailOAuthHandler {
	return &GmailOAuthHandler{flow: flow, store: store}
}

// GET /api/auth/google/auth
func (h *GmailOAuthHandler) Begin(c *gin.Context) {
	state, err := crypto.GenerateToken(16)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	// The state round-trips through a short-lived cookie, checked on callback.
	c.SetCookie("gmail_oauth_state", state, 600, "/", "", false, true)

	response.Success(c, http.StatusOK, gin.H{
		"authorization_url": h.flow.AuthURL(state),
	})
}

// GET /api/auth/google/callback
func (h *GmailOAuthHandler) Callback(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		response.Error(c, appErrors.NewBadRequest("missing authorization code"))
		return
	}

	state := c.Query("state")
	expected, err := c.Cookie("gmail_oauth_state")
	if err != nil || state == "" || state != expected {
		response.Error(c, appErrors.NewBadRequest("state mismatch"))
		return
	}
	c.SetCookie("gmail_oauth_state", "", -1, "/", "", false, true)

	cred, err := h.flow.Exchange(requestContext(c), code)
	if err != nil {
		response.Error(c, appErrors.New("OAUTH_EXCHANGE_FAILED", "could not exchange authorization code", http.StatusBadGateway).WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status": "authorized",
		"scopes": cred.Scopes,
		"expiry": cred.Expiry,
	})
}

// GET /api/auth/google/status
func (h *GmailOAuthHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.store.Status())
}

// POST /api/auth/google/migrate
func (h *GmailOAuthHandler) Migrate(c *gin.Context) {
	if err := h.store.Migrate(requestContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"migrated": true})
}
