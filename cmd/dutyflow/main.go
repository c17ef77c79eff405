// cmd/dutyflow/main.go
//
// This is the entry point for the DutyFlow terminal client.
//
// Flow:
// 1. Resolve and initialise the home directory (config.yaml, logs/, state/)
// 2. Build logging, storage and the session store
// 3. Wire the rotation and palette clients behind their controllers
// 4. Launch the TUI

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/kingrea/dutyflow/internal/collection"
	"github.com/kingrea/dutyflow/internal/config"
	"github.com/kingrea/dutyflow/internal/dashboard"
	"github.com/kingrea/dutyflow/internal/logbook"
	"github.com/kingrea/dutyflow/internal/logging"
	"github.com/kingrea/dutyflow/internal/notify"
	"github.com/kingrea/dutyflow/internal/palette"
	"github.com/kingrea/dutyflow/internal/rotation"
	"github.com/kingrea/dutyflow/internal/session"
	"github.com/kingrea/dutyflow/internal/storage"
	"github.com/kingrea/dutyflow/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	home, err := config.DefaultHome()
	if err != nil {
		return err
	}
	if err := config.InitDir(home); err != nil {
		return fmt.Errorf("initializing %s: %w", home, err)
	}
	cfg, err := config.Load(ctx, home)
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(cfg.LogsDir(), logging.Options{Level: cfg.File.Logging.Level})
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logFile.Logger

	book, err := logbook.New(cfg.ActivityLogPath())
	if err != nil {
		return err
	}

	port, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.File.Storage.Backend,
		Dir:         cfg.StateDir(),
		RedisAddr:   cfg.File.Storage.Redis.Addr,
		RedisDB:     cfg.File.Storage.Redis.DB,
		RedisPrefix: cfg.File.Storage.Redis.Prefix,
	})
	if err != nil {
		return err
	}

	sessions := session.NewStore(port,
		session.WithSigningSecret(cfg.File.Auth.JWTSecret),
		session.WithLogger(log),
	)

	// Every toast is kept for the footer and journaled to the activity log.
	notices := notify.NewRecorder()
	notifier := notify.Fanout(notices, notify.Journal{Book: book})

	rotationClient := rotation.NewClient(cfg.File.API.BaseURL,
		rotation.WithTimeout(cfg.File.API.Timeout),
		rotation.WithTokenSource(sessions),
		rotation.WithLogger(log),
	)
	controller := dashboard.New(rotationClient, sessions, notifier, dashboard.WithLogger(log))

	paletteClient := palette.NewClient(cfg.File.Palette.BaseURL,
		palette.WithRateLimit(rate.Every(cfg.File.Palette.Interval), cfg.File.Palette.Burst),
		palette.WithLogger(log),
	)
	saved := collection.Open[palette.Palette](ctx, port, palette.StorageKey, log)
	workbench := palette.NewWorkbench(paletteClient, saved, notifier, palette.WithWorkbenchLogger(log))

	book.Info("DutyFlow started · %s storage", cfg.File.Storage.Backend)
	log.Info().Str("home", home).Str("api", cfg.File.API.BaseURL).Msg("starting")

	app := tui.NewApp(tui.Deps{
		Session:   sessions,
		Dashboard: controller,
		Issues:    rotationClient,
		Palettes:  workbench,
		Storage:   port,
		Logbook:   book,
		Notices:   notices,
		Log:       log,
	}, tui.WithTheme(cfg.File.UI.Theme), tui.WithRequestTimeout(cfg.File.API.Timeout+5*time.Second))

	p := tea.NewProgram(app, tea.WithAltScreen()) // alternate screen buffer, like vim

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	if closer, ok := port.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}
	return nil
}
