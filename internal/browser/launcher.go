// Package browser opens article links in the user's browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/validation"
)

// Starter builds the command that opens url with opener.
type Starter func(opener string, url string) *exec.Cmd

type Launcher struct {
	opener    string
	validator *validation.URLValidator
	command   Starter
}

func NewLauncher(cfg *config.Config) *Launcher {
	opener := strings.TrimSpace(cfg.UI.DefaultOpener)
	if opener == "" {
		opener = defaultOpener()
	}
	return &Launcher{
		opener:    opener,
		validator: validation.NewArticleURLValidator(),
		command:   openCommand,
	}
}

// WithStarter replaces how the opener is run, for tests.
func (l *Launcher) WithStarter(s Starter) *Launcher {
	l.command = s
	return l
}

func (l *Launcher) Opener() string { return l.opener }

// Open validates url and hands it to the opener without waiting for it.
func (l *Launcher) Open(url string) error {
	normalized, err := l.validator.ValidateAndNormalize(url)
	if err != nil {
		return fmt.Errorf("refusing to open %q: %w", url, err)
	}

	cmd := l.command(l.opener, normalized)
	if cmd == nil {
		return fmt.Errorf("no application found to open URL")
	}

	// Start GUI applications detached
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	debuglog.Debugf("browser: opened %s with %s", normalized, l.opener)

	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func openCommand(opener, url string) *exec.Cmd {
	// "start" is a cmd.exe builtin, not a program
	if opener == "start" {
		return exec.Command("cmd", "/c", "start", "", url)
	}
	fields := strings.Fields(opener)
	args := append(fields[1:], url)
	return exec.Command(fields[0], args...)
}

func defaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		if findCommand("xdg-open") != "" {
			return "xdg-open"
		}
		return "open"
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
