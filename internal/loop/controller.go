package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/typefall/internal/game"
	"github.com/tomz197/typefall/internal/identity"
	"github.com/tomz197/typefall/internal/loop/config"
	"github.com/tomz197/typefall/internal/sched"
	"github.com/tomz197/typefall/internal/score"
)

// Timing holds the periods of the three session tasks.
type Timing struct {
	SpawnEvery time.Duration
	TickEvery  time.Duration
	RampEvery  time.Duration
}

// DefaultTiming returns the standard periods.
func DefaultTiming() Timing {
	return Timing{
		SpawnEvery: config.SpawnEvery,
		TickEvery:  config.TickEvery,
		RampEvery:  config.RampEvery,
	}
}

// Notifier shows a message to the player.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Options configures a Controller. Zero fields get defaults, except
// Identity, which gates everything and must be set for play.
type Options struct {
	Timing    Timing
	Field     game.Field
	Rand      game.Rand
	Identity  identity.Provider
	Submitter score.Submitter
	Notifier  Notifier
	Logger    *log.Logger
}

// taskSet holds the three periodic task handles of a running session.
type taskSet struct {
	spawn  sched.Task
	update sched.Task
	ramp   sched.Task
}

func (t *taskSet) cancel() {
	sched.Cancel(t.spawn, t.update, t.ramp)
	*t = taskSet{}
}

func (t *taskSet) running() bool {
	return t.spawn != nil || t.update != nil || t.ramp != nil
}

// Controller owns one game session: its state, its input buffer, and the
// spawn/update/ramp tasks. Every method must be called on the scheduler's
// thread; the controller never locks.
type Controller struct {
	sched     sched.Scheduler
	timing    Timing
	field     game.Field
	spawner   *game.Spawner
	identity  identity.Provider
	submitter score.Submitter
	notifier  Notifier
	logger    *log.Logger

	state      game.State
	typed      []rune
	tasks      taskSet
	submitting bool
	closed     bool
}

// NewController creates a controller in PhaseIdle.
func NewController(s sched.Scheduler, opts Options) *Controller {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Field == (game.Field{}) {
		opts.Field = game.DefaultField()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string) {})
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Controller{
		sched:     s,
		timing:    opts.Timing,
		field:     opts.Field,
		spawner:   game.NewSpawner(opts.Rand, opts.Field),
		identity:  opts.Identity,
		submitter: opts.Submitter,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		state:     game.NewState(),
	}
}

// State returns a copy of the session state.
func (c *Controller) State() game.State {
	s := c.state
	s.Words = make([]game.Word, len(c.state.Words))
	copy(s.Words, c.state.Words)
	return s
}

// Phase returns the current phase.
func (c *Controller) Phase() game.Phase {
	return c.state.Phase
}

// Typed returns the current input buffer.
func (c *Controller) Typed() string {
	return string(c.typed)
}

// Submitting reports whether a score submission is in flight.
func (c *Controller) Submitting() bool {
	return c.submitting
}

// Field returns the play area the controller simulates.
func (c *Controller) Field() game.Field {
	return c.field
}

// Timing returns the task periods.
func (c *Controller) Timing() Timing {
	return c.timing
}

// CanPlay reports whether the identity gate is currently open.
func (c *Controller) CanPlay() error {
	return identity.Check(c.identity)
}

// Start begins a new session from Idle or Ended. The identity gate must be
// open; otherwise the player is notified and nothing changes.
func (c *Controller) Start() error {
	if c.closed {
		return ErrClosed
	}
	if c.state.Phase == game.PhasePlaying {
		return ErrAlreadyPlaying
	}
	if err := identity.Check(c.identity); err != nil {
		c.notifier.Notify(fmt.Sprintf("Cannot start: %s.", err))
		return err
	}

	c.tasks.cancel()
	c.state.Reset()
	c.typed = c.typed[:0]
	c.state.Phase = game.PhasePlaying

	c.tasks = taskSet{
		spawn:  c.sched.Every(c.timing.SpawnEvery, c.spawn),
		update: c.sched.Every(c.timing.TickEvery, c.update),
		ramp:   c.sched.Every(c.timing.RampEvery, c.ramp),
	}

	c.logger.Info("session started", "player", c.identity.Identity().Username)
	return nil
}

// Reset stops any running session and returns to Idle with initial values.
func (c *Controller) Reset() {
	c.tasks.cancel()
	c.state.Reset()
	c.typed = c.typed[:0]
}

// Close cancels all tasks. The controller cannot start again afterwards.
func (c *Controller) Close() {
	c.tasks.cancel()
	c.closed = true
}

// spawn adds one word at the current base speed.
func (c *Controller) spawn() {
	if c.state.Phase != game.PhasePlaying {
		return
	}
	c.state.AddWord(c.spawner.Spawn(c.state.SpeedMultiplier))
}

// update advances one tick and ends the session when lives run out.
func (c *Controller) update() {
	res := game.Advance(c.state.Words, c.field)
	if !c.state.Apply(res) {
		return
	}
	c.tasks.cancel()
	c.logger.Info("session ended",
		"player", c.identity.Identity().Username,
		"score", c.state.Score,
		"ticks", c.state.ElapsedTicks,
	)
}

// ramp raises the base speed for future spawns.
func (c *Controller) ramp() {
	if c.state.Phase != game.PhasePlaying {
		return
	}
	c.state.Ramp()
}

// Type appends r to the input buffer and checks for matches.
func (c *Controller) Type(r rune) {
	if c.state.Phase != game.PhasePlaying {
		return
	}
	c.typed = append(c.typed, r)
	c.match()
}

// Backspace removes the last typed rune.
func (c *Controller) Backspace() {
	if c.state.Phase != game.PhasePlaying || len(c.typed) == 0 {
		return
	}
	c.typed = c.typed[:len(c.typed)-1]
	c.match()
}

// ClearInput empties the input buffer.
func (c *Controller) ClearInput() {
	c.typed = c.typed[:0]
}

// match removes words equal to the buffer. The buffer is cleared only
// when something matched.
func (c *Controller) match() {
	res := game.Match(c.state.Words, string(c.typed))
	if !res.Hit() {
		return
	}
	c.state.Words = res.Words
	c.state.Score += res.Points
	c.typed = c.typed[:0]
}

// Submit sends the final score. The request runs off the scheduler thread;
// its outcome is posted back and reported through the notifier.
func (c *Controller) Submit(ctx context.Context) error {
	if err := identity.Check(c.identity); err != nil {
		c.notifier.Notify(fmt.Sprintf("Cannot submit: %s.", err))
		return err
	}
	if c.state.Phase != game.PhaseEnded {
		return ErrNotEnded
	}
	if c.submitting {
		return ErrSubmitInFlight
	}
	if c.submitter == nil {
		c.notifier.Notify("Score submission is not configured.")
		return score.ErrTransport
	}

	req := score.Request{
		Player:            c.identity.Identity().Address,
		ScoreAmount:       c.state.Score,
		TransactionAmount: config.TransactionsPerSubmit,
	}
	c.submitting = true
	c.logger.Info("submitting score", "player", req.Player, "score", req.ScoreAmount)

	go func() {
		hash, err := c.submitter.Submit(ctx, req)
		c.sched.Post(func() { c.finishSubmit(hash, err) })
	}()
	return nil
}

func (c *Controller) finishSubmit(hash string, err error) {
	c.submitting = false

	var rejected *score.RejectedError
	switch {
	case err == nil:
		c.notifier.Notify("Score submitted successfully! Transaction hash: " + hash)
	case errors.As(err, &rejected):
		c.logger.Warn("score rejected", "status", rejected.Status, "error", rejected.Message)
		c.notifier.Notify("Error submitting score: " + rejected.Message)
	default:
		c.logger.Error("score submission failed", "error", err)
		c.notifier.Notify("Error submitting score. Please try again.")
	}
}
