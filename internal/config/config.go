package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

const (
	EnvLocal      = "local"
	EnvStaging    = "staging"
	EnvProduction = "production"

	// placeholder shipped in the sample .env
	insecureDefault = "changethis"
)

// Settings is the whole runtime configuration. It is loaded once at startup
// and handed to constructors by value.
type Settings struct {
	Environment string `mapstructure:"environment"`
	ProjectName string `mapstructure:"project_name"`
	APIV1Str    string `mapstructure:"api_v1_str"`
	HTTPAddr    string `mapstructure:"http_addr"`

	SecretKey                  string `mapstructure:"secret_key"`
	AccessTokenExpireMinutes   int    `mapstructure:"access_token_expire_minutes"`
	EmailResetTokenExpireHours int    `mapstructure:"email_reset_token_expire_hours"`
	BcryptCost                 int    `mapstructure:"bcrypt_cost"`

	FrontendHost       string `mapstructure:"frontend_host"`
	BackendCORSOrigins string `mapstructure:"backend_cors_origins"`

	DatabaseURL      string `mapstructure:"database_url"`
	PostgresServer   string `mapstructure:"postgres_server"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDB       string `mapstructure:"postgres_db"`
	DatabaseMaxConns int    `mapstructure:"database_max_conns"`
	DatabaseBackend  string `mapstructure:"database_backend"`

	FirstSuperuser         string `mapstructure:"first_superuser"`
	FirstSuperuserPassword string `mapstructure:"first_superuser_password"`

	SMTPHost        string `mapstructure:"smtp_host"`
	EmailsFromEmail string `mapstructure:"emails_from_email"`
	EmailsFromName  string `mapstructure:"emails_from_name"`

	SnowflakeNode int64 `mapstructure:"snowflake_node"`
}

var defaults = map[string]any{
	"environment":                    EnvLocal,
	"project_name":                   "Full Stack Go",
	"api_v1_str":                     "/api/v1",
	"http_addr":                      "0.0.0.0:8431",
	"secret_key":                     "",
	"access_token_expire_minutes":    60 * 24 * 8,
	"email_reset_token_expire_hours": 48,
	"bcrypt_cost":                    12,
	"frontend_host":                  "http://localhost:5173",
	"backend_cors_origins":           "",
	"database_url":                   "",
	"postgres_server":                "",
	"postgres_port":                  5432,
	"postgres_user":                  "postgres",
	"postgres_password":              "",
	"postgres_db":                    "app",
	"database_max_conns":             10,
	"database_backend":               "postgres",
	"first_superuser":                "admin@example.com",
	"first_superuser_password":       "",
	"smtp_host":                      "",
	"emails_from_email":              "",
	"emails_from_name":               "",
	"snowflake_node":                 1,
}

// Load reads an optional .env file and then the process environment.
func Load() (Settings, error) {
	// best-effort: a missing .env is not an error
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Settings, error) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if s.SecretKey == "" {
		key, err := randomSecret()
		if err != nil {
			return Settings{}, err
		}
		s.SecretKey = key
	}
	if s.EmailsFromName == "" {
		s.EmailsFromName = s.ProjectName
	}
	s.DatabaseBackend = strings.ToLower(s.DatabaseBackend)
	return s, nil
}

// randomSecret matches a url-safe 32 byte token.
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Validate rejects placeholder secrets. In the local environment problems
// come back as warnings; anywhere else they are a hard error.
func (s Settings) Validate() (warnings []string, err error) {
	checks := []struct{ name, value string }{
		{"SECRET_KEY", s.SecretKey},
		{"POSTGRES_PASSWORD", s.PostgresPassword},
		{"FIRST_SUPERUSER_PASSWORD", s.FirstSuperuserPassword},
	}
	var errs []error
	for _, c := range checks {
		if c.value != insecureDefault {
			continue
		}
		msg := fmt.Sprintf("The value of %s is %q, for security, please change it, at least for deployments.", c.name, insecureDefault)
		if s.IsLocal() {
			warnings = append(warnings, msg)
			continue
		}
		errs = append(errs, errors.New(msg))
	}
	switch s.Environment {
	case EnvLocal, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENVIRONMENT must be one of local, staging, production; got %q", s.Environment))
	}
	switch s.DatabaseBackend {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_BACKEND must be postgres or memory; got %q", s.DatabaseBackend))
	}
	return warnings, errors.Join(errs...)
}

func (s Settings) IsLocal() bool { return s.Environment == EnvLocal }

func (s Settings) AccessTokenTTL() time.Duration {
	return time.Duration(s.AccessTokenExpireMinutes) * time.Minute
}

func (s Settings) ResetTokenTTL() time.Duration {
	return time.Duration(s.EmailResetTokenExpireHours) * time.Hour
}

// EmailsEnabled reports whether enough is configured to send mail.
func (s Settings) EmailsEnabled() bool {
	return s.SMTPHost != "" && s.EmailsFromEmail != ""
}

// DSN prefers DATABASE_URL and otherwise assembles one from POSTGRES_*.
func (s Settings) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	if s.PostgresServer == "" {
		return database.DefaultDSN
	}
	return database.BuildDSN(s.PostgresServer, s.PostgresPort, s.PostgresUser, s.PostgresPassword, s.PostgresDB)
}

func (s Settings) DatabaseConfig() database.Config {
	return database.Config{
		DSN:      s.DSN(),
		MaxConns: s.DatabaseMaxConns,
		Timeout:  5 * time.Second,
		TimeZone: "UTC",
	}
}

// CORSOrigins is BACKEND_CORS_ORIGINS (comma separated, trailing slashes
// dropped) plus FRONTEND_HOST.
func (s Settings) CORSOrigins() []string {
	var out []string
	seen := map[string]bool{}
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			return
		}
		seen[o] = true
		out = append(out, o)
	}
	for _, o := range strings.Split(s.BackendCORSOrigins, ",") {
		add(o)
	}
	add(s.FrontendHost)
	return out
}
