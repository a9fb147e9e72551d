package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"digilocker/internal/navigator"
)

func (a *App) prompt() string {
	switch a.sess.Screen() {
	case navigator.Upload:
		return "locker " + a.sess.Identifier().String() + " | upload"
	case navigator.Summary:
		return "locker " + a.sess.Identifier().String() + " | documents"
	default:
		return "digilocker"
	}
}

// repl reads one command per line and dispatches on the current screen.
// Command errors are reported and the loop continues.
func (a *App) repl(ctx context.Context) error {
	for {
		a.printf("%s> ", a.prompt())
		line, err := a.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.println()
				return nil
			}
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "quit", "exit":
			a.println("Bye!")
			return nil
		case "help":
			a.help()
			continue
		}

		var handled bool
		switch a.sess.Screen() {
		case navigator.Init:
			handled, err = a.initCommand(ctx, cmd, args)
		case navigator.Upload:
			handled, err = a.uploadCommand(ctx, cmd, args)
		case navigator.Summary:
			handled, err = a.summaryCommand(ctx, cmd, args)
		}
		if !handled {
			a.println("Unknown command:", cmd, "(type help)")
			continue
		}
		if err != nil {
			a.report(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (a *App) help() {
	switch a.sess.Screen() {
	case navigator.Init:
		a.println("Commands: new, use <health-id>, login [email], register [email], quit")
	case navigator.Upload:
		a.println("Commands: select <path>..., upload, summary, switch, quit")
	case navigator.Summary:
		a.println("Commands: list, open <n>, link <n>, delete <n>, refresh, upload, switch, quit")
	}
}

func (a *App) initCommand(ctx context.Context, cmd string, args []string) (bool, error) {
	switch cmd {
	case "new":
		return true, a.newIdentity(ctx)
	case "use":
		return true, a.useIdentity(ctx, strings.Join(args, " "))
	case "login":
		return true, a.login(ctx, args)
	case "register":
		return true, a.register(ctx, args)
	}
	return false, nil
}

func (a *App) uploadCommand(ctx context.Context, cmd string, args []string) (bool, error) {
	switch cmd {
	case "select":
		return true, a.selectFiles(args)
	case "upload":
		return true, a.upload(ctx)
	case "summary":
		return true, a.showSummary(ctx)
	case "switch":
		return true, a.switchIdentity()
	}
	return false, nil
}

func (a *App) summaryCommand(ctx context.Context, cmd string, args []string) (bool, error) {
	switch cmd {
	case "list", "ls":
		a.renderDocuments()
		return true, nil
	case "refresh":
		return true, a.refresh(ctx)
	case "open":
		return true, a.open(ctx, args)
	case "link":
		return true, a.link(ctx, args)
	case "delete", "rm":
		return true, a.delete(ctx, args)
	case "upload", "back":
		return true, a.backToUpload()
	case "switch":
		return true, a.switchIdentity()
	}
	return false, nil
}
