package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/bankoneone/teller/internal/authstore"
	"github.com/bankoneone/teller/internal/config"
	"github.com/bankoneone/teller/internal/session"
	"github.com/bankoneone/teller/internal/tui"
	"github.com/bankoneone/teller/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("teller " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout()
		}
	}

	cfg, err := config.Load(os.Getenv("TELLER_CONFIG"))
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	storePath, err := authstore.DefaultPath()
	if err != nil {
		return err
	}
	store, err := authstore.Open(storePath)
	if err != nil {
		return err
	}

	mgr := session.NewManager(store, session.Config{
		InactivityWindow: cfg.InactivityWindow(),
		Logger:           log,
	})
	defer mgr.Close()

	c := client.New(cfg.APIURL, mgr,
		client.WithAuthInvalidHook(mgr.HandleAuthInvalid),
		client.WithLogger(log),
	)

	// Token precedence: env var > stored session.
	if tok := os.Getenv("TELLER_TOKEN"); tok != "" {
		mgr.Login(tok)
	} else {
		mgr.Resume()
	}

	app := tui.NewApp(c, mgr, store, cfg.SocketURL)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Forced logouts (inactivity, rejected token) happen off the Bubbletea
	// loop; push them in as messages so the UI can react.
	mgr.OnForcedLogout(func(r session.Reason) {
		p.Send(tui.SessionEndedMsg{Reason: r})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// newLogger builds the diagnostic logger. Without a configured file it is a
// no-op: the TUI owns the terminal.
func newLogger(cfg config.LogConfig) (zerolog.Logger, func(), error) {
	if cfg.File == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return log, func() { f.Close() }, nil //nolint:errcheck // log file close on exit
}

func runLogout() error {
	path, err := authstore.DefaultPath()
	if err != nil {
		return err
	}
	store, err := authstore.Open(path)
	if err != nil {
		return err
	}
	if store.Token() == "" {
		fmt.Println("Already logged out.")
		return nil
	}
	if err := store.ClearToken(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func printHelp() {
	fmt.Print(`teller — Bank One One in your terminal

Usage:
  teller            open the banking TUI
  teller logout     clear your session
  teller version    show version

Environment:
  TELLER_CONFIG            path to config.toml
  TELLER_API_URL           backend base URL
  TELLER_SOCKET_URL        assistant websocket URL
  TELLER_TOKEN             use this session token instead of the stored one
  TELLER_INACTIVITY_SECS   session inactivity timeout
  TELLER_LOG_FILE          write diagnostic logs here
  TELLER_LOG_LEVEL         zerolog level (debug, info, warn, error)
`)
}
