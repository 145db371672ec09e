package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bcastudynepal/portal/pkg/logger"
	pkgmail "github.com/bcastudynepal/portal/pkg/mail"
	"github.com/bcastudynepal/portal/pkg/metrics"
)

const defaultGmailEndpoint = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// GmailConfig carries the runtime settings for the Gmail API mailer.
type GmailConfig struct {
	From     string
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
}

// GmailMailer delivers mail through the Gmail API, one request per message,
// authorized by the credential store. It implements pkg/mail.Mailer.
type GmailMailer struct {
	store    *CredentialStore
	client   *http.Client
	endpoint string
	from     string
	log      *zap.Logger
}

// NewGmailMailer builds a mailer over the given credential store.
func NewGmailMailer(store *CredentialStore, cfg GmailConfig) (*GmailMailer, error) {
	if store == nil {
		return nil, errors.New("gmail mailer: credential store is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultGmailEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &GmailMailer{
		store:    store,
		client:   client,
		endpoint: endpoint,
		from:     strings.TrimSpace(cfg.From),
		log:      logger.WithModule("mail.gmail"),
	}, nil
}

// Send builds the wire-format envelope for one message and posts it to the
// send endpoint. Credential problems surface as ErrConsentRequired.
func (m *GmailMailer) Send(ctx context.Context, msg pkgmail.Message) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(msg.To) == 0 {
		return errors.New("gmail mailer: at least one recipient is required")
	}
	if strings.TrimSpace(msg.From) == "" {
		msg.From = m.from
	}
	if msg.From == "" {
		return errors.New("gmail mailer: sender address is required")
	}

	cred, err := m.store.Load(ctx)
	if err != nil {
		return err
	}

	raw := base64.RawURLEncoding.EncodeToString([]byte(pkgmail.FormatRFC2822(msg)))
	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return fmt.Errorf("gmail mailer: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gmail mailer: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		return fmt.Errorf("gmail mailer: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		m.log.Warn("gmail send rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("gmail mailer: send failed with status %d", resp.StatusCode)
	}

	metrics.MailDeliveries.WithLabelValues("sent").Inc()
	return nil
}

// SendAll delivers each message individually and returns the number sent.
// With failSilently set, a failing message is skipped instead of aborting.
func (m *GmailMailer) SendAll(ctx context.Context, msgs []pkgmail.Message, failSilently bool) (int, error) {
	return pkgmail.SendAll(ctx, m, msgs, failSilently)
}
