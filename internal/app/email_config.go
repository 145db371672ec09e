package app

import (
	imail "github.com/bcastudynepal/portal/internal/mail"
	"github.com/bcastudynepal/portal/pkg/mail"
)

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// GmailStoreConfig converts Gmail settings into credential store parameters.
func (c EmailConfig) GmailStoreConfig() imail.StoreConfig {
	return imail.StoreConfig{
		LegacyPath: c.Gmail.LegacyCredentialsPath,
		JSONPath:   c.Gmail.CredentialsPath,
		Timeout:    c.Gmail.Timeout,
	}
}

// GmailConsentConfig converts Gmail settings into consent flow parameters.
func (c EmailConfig) GmailConsentConfig() imail.ConsentConfig {
	return imail.ConsentConfig{
		ClientID:     c.Gmail.ClientID,
		ClientSecret: c.Gmail.ClientSecret,
		RedirectURL:  c.Gmail.RedirectURL,
		Scopes:       imail.DefaultGmailScopes,
	}
}

// GmailMailerConfig converts Gmail settings into mailer parameters.
func (c EmailConfig) GmailMailerConfig() imail.GmailConfig {
	return imail.GmailConfig{
		From:    c.Gmail.From,
		Timeout: c.Gmail.Timeout,
	}
}
