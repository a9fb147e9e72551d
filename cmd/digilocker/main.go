package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/term"

	"digilocker/internal/app"
	"digilocker/internal/cli"
	"digilocker/internal/config"
	"digilocker/internal/identity"
	"digilocker/internal/locker"
	"digilocker/internal/logging"
)

const defaultIdentityDB = "digilocker.db"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "digilocker:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	// Diagnostics go to stderr so they do not interleave with the screens.
	log := logging.New(os.Stderr, cfg.Log.Level, logging.Location(cfg.Log.TimeZone))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := app.NewBackend(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	path := cfg.Identity.DBPath
	if path == "" {
		path = defaultIdentityDB
	}
	slot, err := identity.OpenSQLiteSlot(ctx, path)
	if err != nil {
		return err
	}
	defer slot.Close()

	sess := locker.NewSession(identity.New(slot, nil), backend.Gateway, locker.Options{
		MaxBatch: cfg.Locker.MaxBatchSize,
		Logger:   log.With("component", "session"),
	})

	fd := -1
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fd = int(os.Stdin.Fd())
	}
	client := cli.NewApp(sess, backend.Auth, cli.Options{
		In:          os.Stdin,
		Out:         os.Stdout,
		DownloadDir: ".",
		LinkTTL:     cfg.Locker.SignedURLTTL(),
		PasswordFD:  fd,
	})
	return client.Run(ctx)
}
