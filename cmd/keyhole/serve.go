package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	kh "github.com/panyam/keyhole"
	"github.com/panyam/keyhole/internal/httpserver"
	"github.com/panyam/keyhole/internal/logutil"
	"github.com/panyam/keyhole/oauth2"
	gormstore "github.com/panyam/keyhole/stores/gorm"
	redisstore "github.com/panyam/keyhole/stores/redis"
)

const sessionCleanupInterval = 5 * time.Minute

func serveCmd(cfg *kh.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the login server",
		Flags: serveFlags(cfg),
		Action: func(c *cli.Context) error {
			logger, err := logutil.New(cfg.LogLevel, cfg.LogPretty)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := logutil.WithLogger(c.Context, logger)

			users, db, closeStore, err := openUserStore(ctx, *cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			sm, err := newSessionManager(ctx, *cfg, db)
			if err != nil {
				return err
			}
			provider, err := oauth2.NewProvider(*cfg)
			if err != nil {
				return err
			}
			app, err := kh.NewApp(*cfg, users, sm, provider, logger)
			if err != nil {
				return err
			}
			logger.Info().
				Str("db", cfg.DatabaseDriver).
				Str("sessions", cfg.SessionStore).
				Bool("external_login", provider != nil).
				Msg("Keyhole ready")
			return httpserver.Serve(ctx, cfg.Addr, app.Handler(), httpserver.TLS{CertFile: cfg.CertFile, KeyFile: cfg.KeyFile})
		},
	}
}

// newSessionManager builds the scs manager and its backing store. db may be
// nil when the database session store is not selected.
func newSessionManager(ctx context.Context, cfg kh.Config, db *gorm.DB) (*scs.SessionManager, error) {
	sm := scs.New()
	sm.Lifetime = cfg.SessionLifetime
	sm.Cookie.Name = cfg.SessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode

	switch cfg.SessionStore {
	case kh.SessionStoreMemory:
		// scs default
	case kh.SessionStoreDatabase:
		if db == nil {
			return nil, errors.New("the database session store needs an sql database")
		}
		store := gormstore.NewSessionStore(db)
		store.StartCleanup(ctx, sessionCleanupInterval)
		sm.Store = store
	case kh.SessionStoreRedis:
		client, err := redisstore.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		sm.Store = redisstore.NewSessionStore(client, redisstore.DefaultPrefix)
	default:
		return nil, fmt.Errorf("unknown session store: %q", cfg.SessionStore)
	}
	return sm, nil
}
