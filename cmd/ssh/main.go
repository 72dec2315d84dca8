package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/typefall/internal/config"
	"github.com/tomz197/typefall/internal/draw"
	"github.com/tomz197/typefall/internal/identity"
	"github.com/tomz197/typefall/internal/loop"
	"github.com/tomz197/typefall/internal/score"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	log.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("ssh server failed", "error", err)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	workingDir, err := os.Getwd()
	if err != nil {
		logger.Warn("failed to get working directory", "error", err)
	}
	logger.Info("ssh config",
		"addr", cfg.SSH.Addr(),
		"hostKeyPath", cfg.SSH.HostKeyPath,
		"workingDir", workingDir,
		"scoreEndpoint", cfg.Score.EndpointURL,
	)

	host := loop.NewHost(logger.WithPrefix("host"))
	games := &gameHandler{
		host:      host,
		submitter: score.NewClient(cfg.Score.EndpointURL, cfg.Score.Timeout, logger),
		timing: loop.Timing{
			SpawnEvery: cfg.Game.SpawnEvery,
			TickEvery:  cfg.Game.TickEvery,
			RampEvery:  cfg.Game.RampEvery,
		},
		gateHint: fmt.Sprintf("Reconnect with your key and address: ssh -o SetEnv=%s=0x... %s",
			identity.AddressEnv, cfg.Web.SSHDisplayHost),
		logger: logger,
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.SSH.Addr()),
		// Anyone may connect. A public key is what authenticates a player
		// for score submission; keyless guests are let in to watch the gate.
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			return true
		}),
		wish.WithKeyboardInteractiveAuth(func(ctx ssh.Context, challenger gossh.KeyboardInteractiveChallenge) bool {
			return true
		}),
		wish.WithMiddleware(
			games.middleware,
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for typed input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if cfg.SSH.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(cfg.SSH.HostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting ssh server", "addr", cfg.SSH.Addr())
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")

		// Notify players and wait for them to disconnect
		logger.Info("notifying connected players about shutdown", "sessions", host.Sessions())
		host.Shutdown(15 * time.Second)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// gameHandler runs one independent game per SSH session.
type gameHandler struct {
	host      *loop.Host
	submitter score.Submitter
	timing    loop.Timing
	gateHint  string
	logger    *log.Logger
}

// middleware handles SSH sessions and runs the game client.
func (h *gameHandler) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		player := identity.FromSSH(sess)
		h.logger.Info("new game session",
			"user", sess.User(),
			"terminal", pty.Term,
			"size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height),
			"key", player.Fingerprint(),
			"gate", gateStatus(player),
		)

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		c := loop.NewClient(bufio.NewReader(sess), sess, loop.ClientOptions{
			TermSizeFunc: sizeTracker.getSize,
			ColorProfile: draw.ProfileForTerm(pty.Term, colorTerm(sess.Environ())),
			Identity:     player,
			Submitter:    h.submitter,
			Timing:       h.timing,
			Logger:       h.logger,
			GateHint:     h.gateHint,
			Inactivity:   true,
			Shutdown:     h.host.Done(),
		})
		if err := h.host.Run(sess.Context(), c); err != nil {
			h.logger.Error("game error", "user", sess.User(), "error", err)
		}

		h.logger.Info("session ended", "user", sess.User())
		next(sess)
	}
}

func gateStatus(p identity.Provider) string {
	if err := identity.Check(p); err != nil {
		return err.Error()
	}
	return "open"
}

func colorTerm(environ []string) string {
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, "COLORTERM="); ok {
			return v
		}
	}
	return ""
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
