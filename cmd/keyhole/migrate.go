package main

import (
	"github.com/urfave/cli/v2"

	kh "github.com/panyam/keyhole"
	"github.com/panyam/keyhole/internal/logutil"
	gormstore "github.com/panyam/keyhole/stores/gorm"
)

func migrateCmd(cfg *kh.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the users and sessions tables",
		Flags: append(databaseFlags(cfg), logFlags(cfg)...),
		Action: func(ctx *cli.Context) error {
			logger, err := logutil.New(cfg.LogLevel, cfg.LogPretty)
			if err != nil {
				return err
			}
			if !cfg.SQLDatabase() {
				logger.Info().Str("driver", cfg.DatabaseDriver).Msg("Nothing to migrate")
				return nil
			}
			db, err := gormstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			if err := gormstore.AutoMigrate(db); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.DatabaseDriver).Msg("Migration completed")
			return nil
		},
	}
}
