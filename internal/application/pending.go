package application

import (
	"context"
	"sync"
)

// PendingWork is the explicit extend-lifetime handle: every handler branch
// that outlives its triggering event registers here, and the host drains
// the registry before letting the process exit.
type PendingWork struct {
	wg sync.WaitGroup
}

func NewPendingWork() *PendingWork {
	return &PendingWork{}
}

// Go runs fn on its own goroutine and keeps the process alive until it
// returns.
func (p *PendingWork) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

// Wait blocks until all registered work has completed or ctx expires.
func (p *PendingWork) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
