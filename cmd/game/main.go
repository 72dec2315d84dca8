package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/tomz197/typefall/internal/config"
	"github.com/tomz197/typefall/internal/identity"
	"github.com/tomz197/typefall/internal/loop"
	"github.com/tomz197/typefall/internal/score"
)

const gateHint = "Set TYPEFALL_ADDRESS and TYPEFALL_USERNAME (or a .env file) and restart."

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "typefall: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Stdout is the game screen, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := cfg.Logging.NewLogger(logOut)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	player := identity.Static{
		Auth: cfg.Player.Authenticated,
		ID: identity.Identity{
			Address:  cfg.Player.Address,
			Username: cfg.Player.Username,
		},
	}
	logger.Info("starting local game", "player", player.ID.Username, "endpoint", cfg.Score.EndpointURL)

	c := loop.NewClient(bufio.NewReader(os.Stdin), os.Stdout, loop.ClientOptions{
		ColorProfile: termenv.EnvColorProfile(),
		Identity:     player,
		Submitter:    score.NewClient(cfg.Score.EndpointURL, cfg.Score.Timeout, logger),
		Timing: loop.Timing{
			SpawnEvery: cfg.Game.SpawnEvery,
			TickEvery:  cfg.Game.TickEvery,
			RampEvery:  cfg.Game.RampEvery,
		},
		Logger:   logger,
		GateHint: gateHint,
	})
	if err := c.Run(ctx); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	return nil
}
