package main

import (
	"github.com/urfave/cli/v2"

	kh "github.com/panyam/keyhole"
)

func databaseFlags(cfg *kh.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-driver",
			Usage:       "Credential store: sqlite, postgres or datastore",
			EnvVars:     []string{"KEYHOLE_DB_DRIVER"},
			Value:       cfg.DatabaseDriver,
			Destination: &cfg.DatabaseDriver,
		},
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "sqlite file, postgres connection string or datastore project[/namespace]",
			EnvVars:     []string{"KEYHOLE_DB_DSN"},
			Value:       cfg.DatabaseDSN,
			Destination: &cfg.DatabaseDSN,
		},
	}
}

func logFlags(cfg *kh.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			EnvVars:     []string{"KEYHOLE_LOG_LEVEL"},
			Value:       cfg.LogLevel,
			Destination: &cfg.LogLevel,
		},
		&cli.BoolFlag{
			Name:        "log-pretty",
			Usage:       "Human readable log output",
			EnvVars:     []string{"KEYHOLE_LOG_PRETTY"},
			Destination: &cfg.LogPretty,
		},
	}
}

func serveFlags(cfg *kh.Config) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bind",
			Aliases:     []string{"addr"},
			Usage:       "Address to listen on",
			EnvVars:     []string{"KEYHOLE_ADDR"},
			Value:       cfg.Addr,
			Destination: &cfg.Addr,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Public URL of the server, used to derive the provider callback",
			EnvVars:     []string{"KEYHOLE_BASE_URL"},
			Value:       cfg.BaseURL,
			Destination: &cfg.BaseURL,
		},
		&cli.StringFlag{
			Name:        "cert",
			EnvVars:     []string{"KEYHOLE_CERT_FILE"},
			Destination: &cfg.CertFile,
		},
		&cli.StringFlag{
			Name:        "key",
			EnvVars:     []string{"KEYHOLE_KEY_FILE"},
			Destination: &cfg.KeyFile,
		},
		&cli.StringFlag{
			Name:        "secret-key",
			Usage:       "Secret used to sign the oauth state",
			EnvVars:     []string{"SECRET_KEY", "KEYHOLE_SECRET_KEY"},
			Destination: &cfg.SecretKey,
		},
		&cli.StringFlag{
			Name:        "session-store",
			Usage:       "memory, database or redis",
			EnvVars:     []string{"KEYHOLE_SESSION_STORE"},
			Value:       cfg.SessionStore,
			Destination: &cfg.SessionStore,
		},
		&cli.StringFlag{
			Name:        "redis-url",
			EnvVars:     []string{"KEYHOLE_REDIS_URL"},
			Destination: &cfg.RedisURL,
		},
		&cli.DurationFlag{
			Name:        "session-lifetime",
			EnvVars:     []string{"KEYHOLE_SESSION_LIFETIME"},
			Value:       cfg.SessionLifetime,
			Destination: &cfg.SessionLifetime,
		},
		&cli.StringFlag{
			Name:        "session-cookie",
			EnvVars:     []string{"KEYHOLE_SESSION_COOKIE"},
			Value:       cfg.SessionCookieName,
			Destination: &cfg.SessionCookieName,
		},
		&cli.BoolFlag{
			Name:        "secure-cookies",
			EnvVars:     []string{"KEYHOLE_SECURE_COOKIES"},
			Value:       cfg.SecureCookies,
			Destination: &cfg.SecureCookies,
		},
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "External identity provider: facebook, google or github",
			EnvVars:     []string{"KEYHOLE_PROVIDER"},
			Value:       cfg.Provider,
			Destination: &cfg.Provider,
		},
		&cli.StringFlag{
			Name:        "client-id",
			Usage:       "OAuth client id, leave empty to disable external login",
			EnvVars:     []string{"CLIENT_ID", "KEYHOLE_CLIENT_ID"},
			Destination: &cfg.ClientID,
		},
		&cli.StringFlag{
			Name:        "client-secret",
			EnvVars:     []string{"CLIENT_SECRET", "KEYHOLE_CLIENT_SECRET"},
			Destination: &cfg.ClientSecret,
		},
		&cli.StringFlag{
			Name:        "callback-url",
			EnvVars:     []string{"KEYHOLE_CALLBACK_URL"},
			Destination: &cfg.CallbackURL,
		},
		&cli.StringSliceFlag{
			Name:    "scope",
			Usage:   "OAuth scope to request, repeatable",
			EnvVars: []string{"KEYHOLE_SCOPES"},
			Action: func(_ *cli.Context, v []string) error {
				cfg.Scopes = v
				return nil
			},
		},
		&cli.IntFlag{
			Name:        "bcrypt-cost",
			EnvVars:     []string{"KEYHOLE_BCRYPT_COST"},
			Destination: &cfg.BcryptCost,
		},
	}
	flags = append(flags, databaseFlags(cfg)...)
	return append(flags, logFlags(cfg)...)
}
