package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/bcastudynepal/portal/internal/database"
)

// Config represents the runtime configuration for the portal backend.
type Config struct {
	Server       ServerConfig         `mapstructure:"server"`
	Database     DatabaseConfig       `mapstructure:"database"`
	Auth         AuthConfig           `mapstructure:"auth"`
	Email        EmailConfig          `mapstructure:"email"`
	Registration RegistrationSettings `mapstructure:"registration"`
	Monitoring   MonitoringConfig     `mapstructure:"monitoring"`
	Maintenance  MaintenanceConfig    `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ServiceConfig converts DatabaseConfig into the parameters expected by the
// database package. Host based drivers win over the sqlite path when enabled.
func (c DatabaseConfig) ServiceConfig() database.Config {
	out := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	var hostCfg *DBAuthConfig
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		if c.Postgres.Enabled {
			hostCfg = &c.Postgres
		}
	case "mysql", "mariadb":
		if c.MySQL.Enabled {
			hostCfg = &c.MySQL
		}
	}

	if hostCfg != nil {
		out.Host = hostCfg.Host
		out.Port = hostCfg.Port
		out.Name = hostCfg.Database
		out.User = hostCfg.Username
		out.Password = hostCfg.Password
	}

	return out
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT     JWTSettings     `mapstructure:"jwt"`
	Session SessionSettings `mapstructure:"session"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	// Provider selects the delivery backend: "smtp" or "gmail".
	Provider string        `mapstructure:"provider"`
	SMTP     SMTPConfig    `mapstructure:"smtp"`
	Gmail    GmailSettings `mapstructure:"gmail"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// GmailSettings configures the Gmail API mailer and its OAuth consent flow.
type GmailSettings struct {
	From                  string        `mapstructure:"from"`
	ClientID              string        `mapstructure:"client_id"`
	ClientSecret          string        `mapstructure:"client_secret"`
	RedirectURL           string        `mapstructure:"redirect_url"`
	CredentialsPath       string        `mapstructure:"credentials_path"`
	LegacyCredentialsPath string        `mapstructure:"legacy_credentials_path"`
	Timeout               time.Duration `mapstructure:"timeout"`
}

// RegistrationSettings tunes the email verification flow for new accounts
// and the password reset flow for existing ones.
type RegistrationSettings struct {
	CodeTTL  time.Duration `mapstructure:"code_ttl"`
	ResetTTL time.Duration `mapstructure:"reset_ttl"`
	AppName  string        `mapstructure:"app_name"`
	Debug    bool          `mapstructure:"debug"`
}

// MaintenanceConfig schedules background cleanup.
type MaintenanceConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// SessionSettings configures refresh tokens and session lifetimes.
type SessionSettings struct {
	RefreshTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	RefreshLength int           `mapstructure:"refresh_token_length"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/portal.sqlite")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.session.refresh_token_ttl", "720h") // 30 days
	v.SetDefault("auth.session.refresh_token_length", 48)

	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")
	v.SetDefault("email.gmail.credentials_path", "./data/gmail_credentials.json")
	v.SetDefault("email.gmail.legacy_credentials_path", "./data/gmail_token.bin")
	v.SetDefault("email.gmail.timeout", "15s")

	v.SetDefault("registration.code_ttl", "10m")
	v.SetDefault("registration.reset_ttl", "1h")
	v.SetDefault("registration.app_name", "BCA Study Nepal")
	v.SetDefault("registration.debug", false)

	v.SetDefault("maintenance.schedule", "@hourly")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
