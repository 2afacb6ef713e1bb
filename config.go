package keyhole

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverDatastore = "datastore" // DSN is "project" or "project/namespace"
)

// External identity providers
const (
	ProviderFacebook = "facebook"
	ProviderGoogle   = "google"
	ProviderGithub   = "github"
)

// Session store backends
const (
	SessionStoreMemory   = "memory"
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)

// Config is built once at startup and handed by value to everything that
// needs it. Nothing reads the environment after that.
type Config struct {
	// Listen address, eg ":3000"
	Addr string

	// Public base URL, used to derive the provider callback URL when unset
	BaseURL string

	// TLS certificate and key. The server speaks plain HTTP when both are empty.
	CertFile string
	KeyFile  string

	// Signs the OAuth state parameter
	SecretKey string

	DatabaseDriver string
	DatabaseDSN    string

	SessionStore      string
	RedisURL          string
	SessionLifetime   time.Duration
	SessionCookieName string
	SecureCookies     bool

	// External identity provider and its credentials. Leave ClientID empty
	// to disable external login.
	Provider     string
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string // overrides the provider default scopes

	BcryptCost int

	LogLevel  string
	LogPretty bool
}

func DefaultConfig() Config {
	return Config{
		Addr:              ":3000",
		BaseURL:           "https://localhost:3000",
		DatabaseDriver:    DriverSQLite,
		DatabaseDSN:       "keyhole.db",
		SessionStore:      SessionStoreMemory,
		SessionLifetime:   24 * time.Hour,
		SessionCookieName: "keyhole_session",
		SecureCookies:     true,
		Provider:          ProviderFacebook,
		LogLevel:          "info",
	}
}

// ExternalLoginEnabled reports whether provider credentials are configured
func (c Config) ExternalLoginEnabled() bool {
	return c.ClientID != ""
}

// SQLDatabase reports whether the credential store is a gorm database
func (c Config) SQLDatabase() bool {
	return c.DatabaseDriver == DriverSQLite || c.DatabaseDriver == DriverPostgres
}

// ProviderCallbackURL is CallbackURL or, if unset, derived from BaseURL
func (c Config) ProviderCallbackURL() string {
	if c.CallbackURL != "" {
		return c.CallbackURL
	}
	return c.BaseURL + ExternalCallbackPath
}

// Validate checks the settings that would otherwise fail at first use.
func (c Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if !slices.Contains([]string{DriverSQLite, DriverPostgres, DriverDatastore}, c.DatabaseDriver) {
		errs = append(errs, fmt.Errorf("unknown database driver: %q", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreDatabase:
		if !c.SQLDatabase() {
			errs = append(errs, errors.New("the database session store needs sqlite or postgres"))
		}
	case SessionStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis url is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session store: %q", c.SessionStore))
	}
	if c.SessionLifetime <= 0 {
		errs = append(errs, errors.New("session lifetime must be positive"))
	}
	if !slices.Contains([]string{ProviderFacebook, ProviderGoogle, ProviderGithub}, c.Provider) {
		errs = append(errs, fmt.Errorf("unknown identity provider: %q", c.Provider))
	}
	if (c.ClientID == "") != (c.ClientSecret == "") {
		errs = append(errs, errors.New("client id and client secret must be set together"))
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		errs = append(errs, errors.New("tls cert and key must be set together"))
	}
	return errors.Join(errs...)
}

// LoadEnvFiles loads the given dotenv files into the process environment.
// Missing files are skipped; variables already set are not overridden.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
