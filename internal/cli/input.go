package cli

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// readLine reads one trimmed line. A final line without a newline is returned
// before io.EOF.
func (a *App) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ask prints prompt and reads the answer.
func (a *App) ask(prompt string) (string, error) {
	a.printf("%s\n> ", prompt)
	return a.readLine()
}

// askPassword reads a password without echo when attached to a terminal.
func (a *App) askPassword(prompt string) (string, error) {
	a.printf("%s: ", prompt)
	if a.passwordFD < 0 {
		return a.readLine()
	}
	b, err := readPassword(a.passwordFD)
	a.println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// confirm asks a yes/no question; anything but y or yes means no.
func (a *App) confirm(question string) bool {
	a.printf("%s [y/N] ", question)
	answer, err := a.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}
