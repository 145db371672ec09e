package app

import (
	"github.com/bcastudynepal/portal/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// SessionServiceConfig converts AuthConfig into SessionService parameters.
func (c AuthConfig) SessionServiceConfig() auth.SessionConfig {
	ttl := c.Session.RefreshTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}

	length := c.Session.RefreshLength
	if length <= 0 {
		length = 48
	}

	return auth.SessionConfig{
		RefreshTokenTTL: ttl,
		RefreshLength:   length,
	}
}

// StoreConfig converts RegistrationSettings into the pending registration
// store parameters.
func (c RegistrationSettings) StoreConfig() auth.RegistrationStoreConfig {
	ttl := c.CodeTTL
	if ttl <= 0 {
		ttl = auth.DefaultCodeTTL
	}

	return auth.RegistrationStoreConfig{CodeTTL: ttl}
}

// ResetStoreConfig converts RegistrationSettings into the password reset
// store parameters.
func (c RegistrationSettings) ResetStoreConfig() auth.PasswordResetStoreConfig {
	ttl := c.ResetTTL
	if ttl <= 0 {
		ttl = auth.DefaultResetTTL
	}

	return auth.PasswordResetStoreConfig{TokenTTL: ttl}
}

// RegistrationServiceConfig combines registration and email settings into the
// registration service parameters. The sender address follows the active
// email provider.
func (c *Config) RegistrationServiceConfig() auth.RegistrationConfig {
	from := c.Email.SMTP.From
	if c.Email.Provider == "gmail" {
		from = c.Email.Gmail.From
	}

	return auth.RegistrationConfig{
		From:    from,
		AppName: c.Registration.AppName,
		Debug:   c.Registration.Debug,
	}
}

// PasswordResetServiceConfig derives the reset flow parameters. The sender
// address follows the active email provider, as with registration mail.
func (c *Config) PasswordResetServiceConfig() auth.PasswordResetConfig {
	from := c.Email.SMTP.From
	if c.Email.Provider == "gmail" {
		from = c.Email.Gmail.From
	}

	return auth.PasswordResetConfig{
		From:    from,
		AppName: c.Registration.AppName,
		Debug:   c.Registration.Debug,
	}
}
