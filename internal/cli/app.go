// Package cli is the interactive terminal client. It renders one screen at a
// time and drives a locker.Session from typed commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"digilocker/internal/auth"
	"digilocker/internal/locker"
)

const defaultLinkTTL = 15 * time.Minute

// Options configure an App.
type Options struct {
	In  io.Reader
	Out io.Writer
	// DownloadDir receives the files fetched with "open".
	DownloadDir string
	LinkTTL     time.Duration
	// PasswordFD is the terminal passwords are read from without echo.
	// A negative value reads them as plain input lines.
	PasswordFD int
}

// App is one terminal client.
type App struct {
	sess *locker.Session
	auth auth.Service

	reader      *bufio.Reader
	out         io.Writer
	downloadDir string
	linkTTL     time.Duration
	passwordFD  int

	// signedIn is the account session, if the user logged in.
	signedIn *auth.Session
}

// NewApp builds a client over sess. authSvc may be nil, which disables the
// login and register commands.
func NewApp(sess *locker.Session, authSvc auth.Service, opts Options) *App {
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = defaultLinkTTL
	}
	return &App{
		sess:        sess,
		auth:        authSvc,
		reader:      bufio.NewReader(opts.In),
		out:         opts.Out,
		downloadDir: opts.DownloadDir,
		linkTTL:     opts.LinkTTL,
		passwordFD:  opts.PasswordFD,
	}
}

// Run restores the remembered identifier, then reads commands until quit or
// end of input.
func (a *App) Run(ctx context.Context) error {
	restored, err := a.sess.Start(ctx)
	if restored {
		a.printf("Welcome back. Health ID: %s\n", a.sess.Identifier())
	}
	if err != nil {
		a.report(err)
	}
	a.help()
	return a.repl(ctx)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
