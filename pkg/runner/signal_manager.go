package runner

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// signalGrace bounds how long CheckRace waits for a signal to follow a read error.
const signalGrace = 100 * time.Millisecond

// SignalManager decides what a Ctrl+C means to the REPL. The first interrupt at
// an empty prompt only warns; a second one in a row ends the session. Any line
// of real input in between starts the count over.
//
// A nil *SignalManager ends the session on the first interrupt.
type SignalManager struct {
	mu      sync.Mutex
	signals []os.Signal
	ctx     context.Context
	cancel  context.CancelFunc
	strikes int
}

// NewSignalManager starts listening for SIGINT and SIGTERM, or for signals when given.
func NewSignalManager(signals ...os.Signal) *SignalManager {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	sm := &SignalManager{signals: signals}
	sm.Reset()
	return sm
}

// Context is cancelled when a signal arrives after the last Reset.
func (sm *SignalManager) Context() context.Context {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.ctx
}

// Reset re-arms the listener so the next signal is observed again.
func (sm *SignalManager) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.cancel != nil {
		sm.cancel()
	}
	sm.ctx, sm.cancel = signal.NotifyContext(context.Background(), sm.signals...)
}

// Stop releases the listener for good.
func (sm *SignalManager) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.cancel != nil {
		sm.cancel()
	}
}

// Pending reports whether an OS signal arrived since the listener was armed.
func (sm *SignalManager) Pending() bool {
	if sm == nil {
		return false
	}
	return sm.Context().Err() != nil
}

// Interrupt records a Ctrl+C at an empty prompt, re-arms the listener and
// reports whether the session should end.
func (sm *SignalManager) Interrupt() bool {
	if sm == nil {
		return true
	}
	sm.Reset()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.strikes++
	return sm.strikes > 1
}

// Continue forgets earlier interrupts once the user enters a line.
func (sm *SignalManager) Continue() {
	if sm == nil {
		return
	}
	sm.mu.Lock()
	sm.strikes = 0
	sm.mu.Unlock()
}

// CheckRace waits up to signalGrace for a signal after a read error.
// Some terminals close stdin on Ctrl+C just before the signal is delivered.
func (sm *SignalManager) CheckRace() {
	if sm == nil {
		return
	}
	ctx := sm.Context()
	if ctx.Err() != nil {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(signalGrace):
	}
}
