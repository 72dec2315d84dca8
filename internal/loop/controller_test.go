package loop

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/typefall/internal/game"
	"github.com/tomz197/typefall/internal/identity"
	"github.com/tomz197/typefall/internal/sched"
	"github.com/tomz197/typefall/internal/score"
)

const testAddress = "0x52908400098527886E0F7030069857D2E4169EE7"

func player() identity.Static {
	return identity.Static{
		Auth: true,
		ID:   identity.Identity{Address: testAddress, Username: "neo"},
	}
}

type fakeSubmitter struct {
	hash    string
	err     error
	release chan struct{}

	mu  sync.Mutex
	got []score.Request
}

func (f *fakeSubmitter) Submit(_ context.Context, req score.Request) (string, error) {
	f.mu.Lock()
	f.got = append(f.got, req)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.hash, f.err
}

func (f *fakeSubmitter) requests() []score.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]score.Request(nil), f.got...)
}

type harness struct {
	ctrl    *Controller
	sched   *sched.Manual
	notices []string
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{sched: sched.NewManual()}
	if opts.Identity == nil {
		opts.Identity = player()
	}
	opts.Rand = rand.New(rand.NewSource(1))
	opts.Notifier = NotifierFunc(func(msg string) { h.notices = append(h.notices, msg) })
	h.ctrl = NewController(h.sched, opts)
	return h
}

func (h *harness) lastNotice() string {
	if len(h.notices) == 0 {
		return ""
	}
	return h.notices[len(h.notices)-1]
}

// endGame drives a running session to game over with one landing word.
func (h *harness) endGame(t *testing.T, finalScore int) {
	t.Helper()
	h.ctrl.state.Score = finalScore
	h.ctrl.state.Lives = 1
	h.ctrl.state.Words = []game.Word{{Text: "dog", Y: 549, Speed: 1}}
	h.sched.Advance(DefaultTiming().TickEvery)
	require.Equal(t, game.PhaseEnded, h.ctrl.Phase())
}

func TestStartRequiresIdentity(t *testing.T) {
	tests := []struct {
		name    string
		id      identity.Static
		wantErr error
	}{
		{"not authenticated", identity.Static{ID: player().ID}, identity.ErrNotAuthenticated},
		{"no address", identity.Static{Auth: true, ID: identity.Identity{Username: "neo"}}, identity.ErrAddressRequired},
		{"no username", identity.Static{Auth: true, ID: identity.Identity{Address: testAddress}}, identity.ErrUsernameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{Identity: tt.id})

			err := h.ctrl.Start()

			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, h.lastNotice(), tt.wantErr.Error())
			assert.Equal(t, game.NewState(), h.ctrl.State())
			assert.Zero(t, h.sched.Active())
		})
	}
}

func TestStartRunsThreeTasks(t *testing.T) {
	h := newHarness(t, Options{})

	require.NoError(t, h.ctrl.Start())
	assert.Equal(t, game.PhasePlaying, h.ctrl.Phase())
	assert.Equal(t, 3, h.sched.Active())

	h.sched.Advance(2000 * time.Millisecond)

	st := h.ctrl.State()
	require.Len(t, st.Words, 1)
	w := st.Words[0]
	assert.GreaterOrEqual(t, w.Speed, 1.0)
	assert.Less(t, w.Speed, 1.5)
	assert.GreaterOrEqual(t, w.X, 0.0)
	assert.Less(t, w.X, 600.0)
	assert.Equal(t, 125, st.ElapsedTicks)
}

func TestStartWhilePlaying(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())

	assert.ErrorIs(t, h.ctrl.Start(), ErrAlreadyPlaying)
	assert.Equal(t, 3, h.sched.Active())
}

func TestRampAfterThreeSteps(t *testing.T) {
	h := newHarness(t, Options{Timing: Timing{
		SpawnEvery: time.Hour,
		TickEvery:  16 * time.Millisecond,
		RampEvery:  8 * time.Second,
	}})
	require.NoError(t, h.ctrl.Start())

	h.sched.Advance(24 * time.Second)

	assert.InDelta(t, 1.9, h.ctrl.State().SpeedMultiplier, 1e-9)
}

func TestTypingMatchesAndScores(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())
	h.ctrl.state.Words = []game.Word{{Text: "cat", Speed: 1}, {Text: "ocean", Speed: 1}}

	h.ctrl.Type('C')
	h.ctrl.Type('a')
	assert.Equal(t, "Ca", h.ctrl.Typed())
	h.ctrl.Type('t')

	st := h.ctrl.State()
	assert.Equal(t, 30, st.Score)
	assert.Empty(t, h.ctrl.Typed())
	require.Len(t, st.Words, 1)
	assert.Equal(t, "ocean", st.Words[0].Text)
}

func TestBackspaceRechecksMatch(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())
	h.ctrl.state.Words = []game.Word{{Text: "dog", Speed: 1}}

	for _, r := range "dox" {
		h.ctrl.Type(r)
	}
	assert.Equal(t, "dox", h.ctrl.Typed())

	h.ctrl.Backspace()
	h.ctrl.Type('g')

	assert.Equal(t, 30, h.ctrl.State().Score)
	assert.Empty(t, h.ctrl.Typed())
}

func TestClearInput(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())

	h.ctrl.Type('x')
	h.ctrl.ClearInput()

	assert.Empty(t, h.ctrl.Typed())
}

func TestTypeIgnoredOutsidePlaying(t *testing.T) {
	h := newHarness(t, Options{})

	h.ctrl.Type('a')
	h.ctrl.Backspace()

	assert.Empty(t, h.ctrl.Typed())
}

func TestGameOverStopsAllTasks(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())

	h.endGame(t, 120)

	st := h.ctrl.State()
	assert.Zero(t, st.Lives)
	assert.Zero(t, h.sched.Active())

	h.sched.Advance(time.Minute)
	h.ctrl.Type('d')

	assert.Equal(t, st, h.ctrl.State())
}

func TestSeveralLandingsInOneTick(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())
	h.ctrl.state.Words = []game.Word{
		{Text: "cat", Y: 549, Speed: 1},
		{Text: "dog", Y: 549, Speed: 1},
		{Text: "run", Y: 549, Speed: 1},
	}

	h.sched.Advance(DefaultTiming().TickEvery)

	st := h.ctrl.State()
	assert.Equal(t, game.PhaseEnded, st.Phase)
	assert.Zero(t, st.Lives)
	assert.Empty(t, st.Words)
}

func TestResetAndRestartRoundTrip(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())
	h.sched.Advance(10 * time.Second)
	h.ctrl.Type('z')

	h.ctrl.Reset()

	assert.Equal(t, game.NewState(), h.ctrl.State())
	assert.Empty(t, h.ctrl.Typed())
	assert.Zero(t, h.sched.Active())

	require.NoError(t, h.ctrl.Start())
	st := h.ctrl.State()
	assert.Equal(t, game.PhasePlaying, st.Phase)
	assert.Zero(t, st.Score)
	assert.Equal(t, 3, st.Lives)
	assert.Zero(t, st.ElapsedTicks)
	assert.Equal(t, 1.0, st.SpeedMultiplier)
	assert.Empty(t, st.Words)
}

func TestRestartFromEnded(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())
	h.endGame(t, 50)

	require.NoError(t, h.ctrl.Start())

	assert.Zero(t, h.ctrl.State().Score)
	assert.Equal(t, 3, h.sched.Active())
}

func TestCloseCancelsTasks(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.ctrl.Start())

	h.ctrl.Close()
	h.ctrl.Close()

	assert.Zero(t, h.sched.Active())
	assert.ErrorIs(t, h.ctrl.Start(), ErrClosed)
}

func TestSubmitRequiresEnded(t *testing.T) {
	sub := &fakeSubmitter{hash: "0xabc"}
	h := newHarness(t, Options{Submitter: sub})

	assert.ErrorIs(t, h.ctrl.Submit(context.Background()), ErrNotEnded)

	require.NoError(t, h.ctrl.Start())
	assert.ErrorIs(t, h.ctrl.Submit(context.Background()), ErrNotEnded)
	assert.Empty(t, sub.requests())
}

func TestSubmitRequiresIdentity(t *testing.T) {
	sub := &fakeSubmitter{hash: "0xabc"}
	id := &mutableIdentity{Static: player()}
	h := newHarness(t, Options{Submitter: sub, Identity: id})
	require.NoError(t, h.ctrl.Start())
	h.endGame(t, 40)

	id.Static.ID.Address = ""

	assert.ErrorIs(t, h.ctrl.Submit(context.Background()), identity.ErrAddressRequired)
	assert.Contains(t, h.lastNotice(), identity.ErrAddressRequired.Error())
	assert.False(t, h.ctrl.Submitting())
	assert.Empty(t, sub.requests())
}

// mutableIdentity lets a test change the identity mid-session.
type mutableIdentity struct {
	identity.Static
}

func TestSubmitOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		submitter  *fakeSubmitter
		wantNotice string
	}{
		{
			name:       "success",
			submitter:  &fakeSubmitter{hash: "0xfeed"},
			wantNotice: "Score submitted successfully! Transaction hash: 0xfeed",
		},
		{
			name:       "rejected",
			submitter:  &fakeSubmitter{err: &score.RejectedError{Status: 400, Message: "Invalid player address"}},
			wantNotice: "Error submitting score: Invalid player address",
		},
		{
			name:       "transport",
			submitter:  &fakeSubmitter{err: fmt.Errorf("%w: connection refused", score.ErrTransport)},
			wantNotice: "Error submitting score. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{Submitter: tt.submitter})
			require.NoError(t, h.ctrl.Start())
			h.endGame(t, 230)

			require.NoError(t, h.ctrl.Submit(context.Background()))
			assert.True(t, h.ctrl.Submitting())

			require.Eventually(t, func() bool {
				h.sched.Drain()
				return !h.ctrl.Submitting()
			}, time.Second, time.Millisecond)

			assert.Equal(t, tt.wantNotice, h.lastNotice())
			assert.Equal(t, []score.Request{{
				Player:            testAddress,
				ScoreAmount:       230,
				TransactionAmount: 1,
			}}, tt.submitter.requests())
		})
	}
}

func TestSubmitInFlight(t *testing.T) {
	sub := &fakeSubmitter{hash: "0xfeed", release: make(chan struct{})}
	h := newHarness(t, Options{Submitter: sub})
	require.NoError(t, h.ctrl.Start())
	h.endGame(t, 10)

	require.NoError(t, h.ctrl.Submit(context.Background()))
	assert.ErrorIs(t, h.ctrl.Submit(context.Background()), ErrSubmitInFlight)

	close(sub.release)
	require.Eventually(t, func() bool {
		h.sched.Drain()
		return !h.ctrl.Submitting()
	}, time.Second, time.Millisecond)

	assert.Len(t, sub.requests(), 1)
}
