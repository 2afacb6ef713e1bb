package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	kh "github.com/panyam/keyhole"
)

func main() {
	if err := kh.LoadEnvFiles(".env"); err != nil {
		log.Fatal().Err(err).Msg("Cannot load .env")
	}
	cfg := kh.DefaultConfig()
	app := &cli.App{
		Name:  "keyhole",
		Usage: "Email/password and social login with server side sessions",
		Commands: []*cli.Command{
			serveCmd(&cfg),
			migrateCmd(&cfg),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
