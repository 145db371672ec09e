package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcastudynepal/portal/internal/handlers/testutil"
)

// lastMailedResetToken pulls the reset token out of the most recent message.
func lastMailedResetToken(t *testing.T, env *testutil.Env) string {
	t.Helper()
	require.NotEmpty(t, env.Mailer.Messages, "expected a reset mail")
	body := env.Mailer.Messages[len(env.Mailer.Messages)-1].Body
	const prefix = "Your password reset code is "
	require.True(t, strings.HasPrefix(body, prefix), body)
	rest := body[len(prefix):]
	end := strings.Index(rest, ".")
	require.Greater(t, end, 0, body)
	return rest[:end]
}

func TestPasswordResetEndToEnd(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Sup3r-secret!")

	w := env.Request(http.MethodPost, "/api/auth/password-reset", map[string]string{
		"email": user.Email,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := lastMailedResetToken(t, env)
	w = env.Request(http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"email":            user.Email,
		"token":            token,
		"new_password":     "Fresh-secret-1",
		"confirm_password": "Fresh-secret-1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The old password no longer works, the new one does.
	w = env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": user.Username,
		"password":   "Sup3r-secret!",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	env.Login(user.Username, "Fresh-secret-1")

	// The token was consumed by the successful confirm.
	w = env.Request(http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"email":            user.Email,
		"token":            token,
		"new_password":     "Another-secret-1",
		"confirm_password": "Another-secret-1",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestPasswordResetUnknownEmailIsOpaque(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/password-reset", map[string]string{
		"email": "ghost@example.com",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Empty(t, env.Mailer.Messages)

	resp := testutil.DecodeResponse(t, w)
	var payload struct {
		Status string `json:"status"`
	}
	testutil.DecodeInto(t, resp.Data, &payload)
	require.Equal(t, "sent", payload.Status)
}

func TestPasswordResetConfirmRejectsBadToken(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Sup3r-secret!")

	w := env.Request(http.MethodPost, "/api/auth/password-reset", map[string]string{
		"email": user.Email,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"email":            user.Email,
		"token":            "bogus-token",
		"new_password":     "Fresh-secret-1",
		"confirm_password": "Fresh-secret-1",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// The real token survives a mismatched attempt.
	token := lastMailedResetToken(t, env)
	w = env.Request(http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"email":            user.Email,
		"token":            token,
		"new_password":     "Fresh-secret-1",
		"confirm_password": "Fresh-secret-1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPasswordResetConfirmReportsPasswordFieldErrors(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Sup3r-secret!")

	w := env.Request(http.MethodPost, "/api/auth/password-reset", map[string]string{
		"email": user.Email,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := lastMailedResetToken(t, env)

	w = env.Request(http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"email":            user.Email,
		"token":            token,
		"new_password":     "Fresh-secret-1",
		"confirm_password": "Other-secret-1",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
}
