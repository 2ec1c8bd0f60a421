package game

import (
	"context"
	"time"
)

// tickerState tracks the real-time tick source. Guarded by Engine.mu.
type tickerState struct {
	cancel context.CancelFunc
	done   chan struct{}
	parent context.Context
}

func (t *tickerState) cancelLocked() {
	if t.cancel != nil {
		t.cancel()
	}
}

// StartTicker drives Tick from a time.Ticker every TickInterval until ctx is
// cancelled, the session ends or Stop/Restart is called. Starting a ticker
// that is already running is a no-op.
//
// Event handlers run on the ticker goroutine for tick-driven events and must
// not call Stop or Restart synchronously.
func (e *Engine) StartTicker(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sm.CurrentPhase().CanReceiveActions() {
		return ErrNotPlaying
	}
	if e.ticker.done != nil {
		select {
		case <-e.ticker.done:
			// previous ticker exited on its own
		default:
			return nil
		}
	}

	tctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.ticker = tickerState{cancel: cancel, done: done, parent: ctx}

	e.logger.Debug().Dur("interval", e.config.TickInterval).Msg("Tick source started")
	go e.runTicker(tctx, cancel, done)
	return nil
}

func (e *Engine) runTicker(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	t := time.NewTicker(e.config.TickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if res := e.Tick(); !res.Advanced || res.GameOver {
				return
			}
		}
	}
}

// stopTicker cancels the tick source and waits for it to exit. It returns
// the context the ticker was started with, or nil if there was none or it
// is already cancelled.
func (e *Engine) stopTicker() context.Context {
	e.mu.Lock()
	st := e.ticker
	e.ticker = tickerState{}
	e.mu.Unlock()

	if st.cancel == nil {
		return nil
	}
	st.cancel()
	<-st.done
	e.logger.Debug().Msg("Tick source stopped")

	if st.parent.Err() != nil {
		return nil
	}
	return st.parent
}

// TickerRunning reports whether a tick source goroutine is alive.
func (e *Engine) TickerRunning() bool {
	e.mu.Lock()
	done := e.ticker.done
	e.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
