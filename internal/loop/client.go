package loop

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/tomz197/typefall/internal/draw"
	"github.com/tomz197/typefall/internal/game"
	"github.com/tomz197/typefall/internal/identity"
	"github.com/tomz197/typefall/internal/input"
	"github.com/tomz197/typefall/internal/loop/config"
	"github.com/tomz197/typefall/internal/sched"
	"github.com/tomz197/typefall/internal/score"
)

// Client runs one game session on a terminal: it owns the scheduler loop,
// the Controller, and the Input -> Update -> Draw frame task.
type Client struct {
	id           uuid.UUID
	loop         *sched.Loop
	ctrl         *Controller
	state        *ClientState
	chunkWriter  *draw.ChunkWriter // Accumulates a frame for chunked output
	palette      *draw.Palette
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	lastFrame    time.Time
	termSizeFunc draw.TermSizeFunc
	username     string
	gateHint     string
	inactivity   bool
	shutdown     <-chan struct{}
	logger       *log.Logger
	ctx          context.Context
	err          error
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	ColorProfile termenv.Profile
	Identity     identity.Provider
	Submitter    score.Submitter
	Timing       Timing
	Rand         game.Rand
	Logger       *log.Logger

	// GateHint is shown on the title screen when the identity gate is closed.
	GateHint string
	// Inactivity disconnects players that stop typing (SSH sessions).
	Inactivity bool
	// Shutdown is closed when the host is going down.
	Shutdown <-chan struct{}
}

// NewClient creates a client reading keys from r and drawing to w.
func NewClient(r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	id := uuid.New()
	username := ""
	if opts.Identity != nil {
		username = opts.Identity.Identity().Username
	}
	logger = logger.With("session", id.String()[:8])

	c := &Client{
		id:           id,
		loop:         sched.NewLoop(256),
		state:        NewClientState(),
		chunkWriter:  draw.NewChunkWriter(w, 0, 0),
		palette:      draw.NewPalette(w, opts.ColorProfile),
		writer:       w,
		inputStream:  input.StartStream(r),
		lastInput:    time.Now(),
		termSizeFunc: termSizeFunc,
		username:     username,
		gateHint:     opts.GateHint,
		inactivity:   opts.Inactivity,
		shutdown:     opts.Shutdown,
		logger:       logger,
		ctx:          context.Background(),
	}

	c.ctrl = NewController(c.loop, Options{
		Timing:    opts.Timing,
		Rand:      opts.Rand,
		Identity:  opts.Identity,
		Submitter: opts.Submitter,
		Notifier:  NotifierFunc(c.notify),
		Logger:    logger,
	})
	return c
}

// ID identifies the session.
func (c *Client) ID() uuid.UUID { return c.id }

// Username is the player name the session was opened with.
func (c *Client) Username() string { return c.username }

// Run starts the client loop. Blocks until the player quits, the input
// closes, the host shuts down or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	c.ctx = ctx
	c.lastFrame = time.Now()
	frame := c.loop.Every(config.ClientTargetFrameTime, c.frame)

	err := c.loop.Run(ctx)

	// Run returned on this goroutine, so the controller is safe to touch.
	frame.Cancel()
	c.ctrl.Close()
	c.loop.Wait()

	draw.ClearScreen(c.writer)

	if c.err != nil {
		return c.err
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// frame is one Input -> Update -> Draw pass.
func (c *Client) frame() {
	now := time.Now()
	c.state.delta = now.Sub(c.lastFrame)
	c.lastFrame = now

	c.processInput()
	c.processShutdown()
	c.state.tick()
	c.updateScreen()

	if !c.state.Running {
		c.loop.Stop()
		return
	}

	if err := c.drawFrame(); err != nil {
		c.err = err
		c.loop.Stop()
	}
}

// processInput reads pending keys and dispatches them.
func (c *Client) processInput() {
	in := input.ReadInput(c.inputStream)
	if in.Quit {
		c.state.Running = false
		return
	}

	if len(in.Events) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if c.inactivity {
		idle := time.Since(c.lastInput).Seconds()
		if idle > config.InactivityDisconnectUser {
			c.logger.Info("disconnecting inactive player")
			c.state.Running = false
			return
		}
		if idle > config.InactivityWarnUser {
			c.state.isInactive = true
		}
	}

	for _, e := range in.Events {
		if !c.state.Running {
			return
		}
		c.handleKey(e)
	}

	if in.Closed {
		c.state.Running = false
	}
}

// handleKey applies one key to the current phase.
func (c *Client) handleKey(e input.Event) {
	if c.state.shuttingDown {
		if e.Key == input.KeyEscape || isRune(e, 'q') {
			c.state.Running = false
		}
		return
	}

	switch c.ctrl.Phase() {
	case game.PhaseIdle:
		switch {
		case e.Key == input.KeyEnter:
			c.start()
		case e.Key == input.KeyEscape, isRune(e, 'q'):
			c.state.Running = false
		}

	case game.PhasePlaying:
		switch e.Key {
		case input.KeyRune:
			c.ctrl.Type(e.Rune)
		case input.KeyBackspace:
			c.ctrl.Backspace()
		case input.KeyClear, input.KeyEnter:
			c.ctrl.ClearInput()
		case input.KeyEscape:
			c.logger.Info("session aborted", "score", c.ctrl.State().Score)
			c.ctrl.Reset()
		}

	case game.PhaseEnded:
		switch {
		case e.Key == input.KeyEnter, isRune(e, 'r'):
			c.start()
		case isRune(e, 's'):
			c.submit()
		case e.Key == input.KeyEscape:
			c.ctrl.Reset()
		case isRune(e, 'q'):
			c.state.Running = false
		}
	}
}

func isRune(e input.Event, lower rune) bool {
	return e.Key == input.KeyRune && (e.Rune == lower || e.Rune == lower-'a'+'A')
}

// start begins a session. Gate failures were already shown by the notifier.
func (c *Client) start() {
	if err := c.ctrl.Start(); err != nil {
		c.logger.Debug("start refused", "error", err)
	}
}

func (c *Client) submit() {
	err := c.ctrl.Submit(c.ctx)
	switch {
	case err == nil:
		c.notify("Submitting score...")
	case errors.Is(err, ErrSubmitInFlight):
		c.notify("Submission in progress, please wait.")
	default:
		c.logger.Debug("submit refused", "error", err)
	}
}

// notify shows msg for a few seconds. Runs on the loop thread.
func (c *Client) notify(msg string) {
	c.state.notice = msg
	c.state.noticeTimer = config.NoticeSeconds
}

// processShutdown switches to the shutdown screen once the host is going down.
func (c *Client) processShutdown() {
	if c.shutdown == nil || c.state.shuttingDown {
		return
	}
	select {
	case <-c.shutdown:
		c.state.shuttingDown = true
		c.state.shutdownTimer = config.ShutdownDisplaySeconds
		c.ctrl.Reset()
	default:
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes the whole terminal is cleared to remove residue
// outside the new render area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	area, offsetCol, offsetRow := draw.Fit(termWidth, termHeight, config.MaxTermWidth, config.MaxTermHeight)
	if area != c.state.area || offsetCol != c.state.offsetCol || offsetRow != c.state.offsetRow {
		c.state.area = area
		c.state.offsetCol = offsetCol
		c.state.offsetRow = offsetRow
		c.state.forceRedraw = true
	}
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}
