// Package gorm provides GORM-based implementations of the keyhole stores.
// It supports SQLite and PostgreSQL and backs both the credential store and,
// optionally, the session store.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: credential store records, unique on email and on (provider, external_id)
//   - sessions: scs session data keyed by token, with an expiry index
//
// # Usage
//
//	db, _ := gormstore.Open(keyhole.DriverSQLite, "keyhole.db")
//	_ = gormstore.AutoMigrate(db)
//	userStore := gormstore.NewUserStore(db)
//	sessionStore := gormstore.NewSessionStore(db)
package gorm
