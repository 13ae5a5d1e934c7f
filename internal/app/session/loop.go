package session

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mellowmind/internal/domain/track"
)

// loopHandle owns the mutable session state and the lifecycle of the
// background continuous-playback goroutine. The goroutine is the only
// concurrent mutator of the state; it is cancelled through its context and
// joined with a bounded timeout before a new one may start.
type loopHandle struct {
	mu      sync.Mutex
	st      sessionState
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func (h *loopHandle) init() {
	h.st = sessionState{state: StateIdle}
}

// Continuous reports whether the background loop is running.
func (c *Controller) Continuous() bool {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()
	return c.loop.running
}

// ToggleContinuous starts the continuous-playback loop if it is stopped and
// stops it if it is running. When starting, playback begins at the current
// queue position.
func (c *Controller) ToggleContinuous(ctx context.Context) bool {
	if c.Continuous() {
		c.StopContinuous()
		return false
	}

	c.loop.mu.Lock()
	start := c.loop.st.index
	c.loop.mu.Unlock()
	c.StartContinuous(ctx, start)
	return true
}

// StartContinuous starts the background loop playing from startIndex. Any
// previous loop is fully stopped first so that a single goroutine mutates
// the playback state at a time.
func (c *Controller) StartContinuous(ctx context.Context, startIndex int) {
	c.StopContinuous()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.loop.mu.Lock()
	c.loop.running = true
	c.loop.cancel = cancel
	c.loop.done = done
	c.loop.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			c.loop.mu.Lock()
			c.loop.running = false
			c.loop.mu.Unlock()
			zlog.Info().Msg("session: continuous playback stopped")
		}()
		c.runLoop(loopCtx, startIndex)
	}()

	zlog.Info().Msg("session: continuous playback started")
}

// StopContinuous signals the background loop to stop and waits for it to
// finish, up to the configured timeout.
func (c *Controller) StopContinuous() {
	c.loop.mu.Lock()
	cancel := c.loop.cancel
	done := c.loop.done
	c.loop.cancel = nil
	c.loop.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(c.config.StopTimeout):
		zlog.Warn().Msg("session: timed out waiting for playback loop to stop")
	}
}

// runLoop is the body of the background continuous-playback goroutine. It
// plays the track at startIndex, then polls the transport status on a fixed
// interval, advancing through the queue as tracks complete. A depleted queue
// triggers a refill from the recommendation pipeline; the loop terminates
// when no new candidates arrive. Poll errors are transient: logged and
// retried after a longer backoff.
func (c *Controller) runLoop(ctx context.Context, startIndex int) {
	c.loop.mu.Lock()
	queueLen := len(c.loop.st.queue)
	c.loop.mu.Unlock()

	if queueLen == 0 || startIndex >= queueLen {
		zlog.Info().Msg("session: no tracks in queue to play")
		return
	}

	c.loop.mu.Lock()
	t := c.loop.st.queue[startIndex]
	c.loop.mu.Unlock()
	if err := c.playTrack(ctx, t, startIndex); err != nil {
		zlog.Warn().Msgf("session: failed to start continuous playback: %v", err)
	}

	for {
		if !sleepCtx(ctx, c.config.PollInterval) {
			return
		}

		status, err := c.transport.CurrentStatus(ctx)
		if err != nil {
			zlog.Warn().Msgf("session: playback status poll failed: %v", err)
			if !sleepCtx(ctx, c.config.ErrorBackoff) {
				return
			}
			continue
		}

		// Still playing: nothing to do this tick.
		if status != nil && status.IsPlaying {
			continue
		}

		if !c.advance(ctx) {
			return
		}
	}
}

// advance moves to the next queued track, refilling the queue from the
// recommendation pipeline when it is exhausted. Returns false when playback
// cannot continue.
func (c *Controller) advance(ctx context.Context) bool {
	c.loop.mu.Lock()
	next := c.loop.st.index + 1
	var t *track.Track
	if next < len(c.loop.st.queue) {
		cp := c.loop.st.queue[next]
		t = &cp
	}
	e := c.loop.st.emotion
	c.loop.mu.Unlock()

	if t != nil {
		zlog.Info().Msgf("session: automatic playback: %s by %s", t.Name, t.Artist)
		if err := c.playTrack(ctx, *t, next); err != nil {
			zlog.Warn().Msgf("session: automatic playback failed: %v", err)
		}
		return true
	}

	zlog.Info().Msg("session: reached end of queue, fetching more recommendations")

	c.loop.mu.Lock()
	existing := make(map[string]bool, len(c.loop.st.queue))
	for _, qt := range c.loop.st.queue {
		existing[qt.ID] = true
	}
	c.loop.mu.Unlock()

	more, err := c.fetchCandidates(ctx, e, c.config.RefillLimit, existing)
	if err != nil {
		zlog.Warn().Msgf("session: queue refill failed: %v", err)
		return false
	}
	if len(more) == 0 {
		zlog.Info().Msg("session: no more recommendations available")
		return false
	}

	c.loop.mu.Lock()
	c.loop.st.queue = append(c.loop.st.queue, more...)
	nt := c.loop.st.queue[next]
	c.loop.mu.Unlock()

	if err := c.playTrack(ctx, nt, next); err != nil {
		zlog.Warn().Msgf("session: automatic playback failed: %v", err)
	}
	return true
}

// sleepCtx sleeps for d unless the context is cancelled first. Returns
// false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
