package runner

import (
	"log/slog"
	"sync"
	"time"
)

// Pacer drives RunFrame at a fixed wall-clock rate on its own host
// thread, grounded on the teacher's interval-timer idiom: a ticker plus
// an enable channel plus a done channel, generalized from periodic
// master-channel packets to frame ticks (spec.md §4.7 step 5, §5's
// "audio/graphics/input subsystems each run on their own thread").
type Pacer struct {
	wg      sync.WaitGroup
	running chan bool
	done    chan struct{}
	ticker  *time.Ticker
}

// NewPacer starts the pacer's background goroutine, initially stopped.
func NewPacer(r *Runner, collab Collaborator, interval time.Duration) *Pacer {
	p := &Pacer{
		running: make(chan bool, 1),
		done:    make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run(r, collab, interval)
	return p
}

// Start enables the per-tick frame stepping.
func (p *Pacer) Start() { p.running <- true }

// Stop disables it without tearing down the goroutine.
func (p *Pacer) Stop() { p.running <- false }

// Shutdown stops the pacer's goroutine, waiting briefly for it to exit.
func (p *Pacer) Shutdown() {
	close(p.done)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("runner: timed out waiting for pacer to finish")
	}
}

func (p *Pacer) run(r *Runner, collab Collaborator, interval time.Duration) {
	defer p.wg.Done()
	p.ticker = time.NewTicker(interval)
	defer p.ticker.Stop()
	active := false

	for {
		select {
		case <-p.ticker.C:
			if active {
				r.RunFrame(collab)
			}
		case active = <-p.running:
		case <-p.done:
			return
		}
	}
}
