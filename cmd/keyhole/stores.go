package main

import (
	"context"

	"gorm.io/gorm"

	kh "github.com/panyam/keyhole"
	"github.com/panyam/keyhole/stores/gae"
	gormstore "github.com/panyam/keyhole/stores/gorm"
)

// openUserStore opens the credential store named by cfg.DatabaseDriver. db is
// nil unless the driver is an SQL database. closeFn releases the connection.
func openUserStore(ctx context.Context, cfg kh.Config) (users kh.UserStore, db *gorm.DB, closeFn func() error, err error) {
	if cfg.DatabaseDriver == kh.DriverDatastore {
		store, client, err := gae.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, client.Close, nil
	}

	db, err = gormstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, err
	}
	return gormstore.NewUserStore(db), db, sqlDB.Close, nil
}
