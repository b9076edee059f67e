package feed

import (
	"context"
	"log"
	"time"
)

// DefaultPollInterval paces reads of the state endpoint. This is a
// pacing interval, not a request timeout.
const DefaultPollInterval = 5 * time.Second

// Source provides the latest match-state snapshot.
type Source interface {
	Latest(ctx context.Context) (*Snapshot, error)
}

// Poller repeatedly reads snapshots from a Source, suppresses
// duplicates, and emits classified events. It is a single-producer
// loop: one Poller feeds exactly one consumer over the event channel.
type Poller struct {
	source   Source
	interval time.Duration
	last     Snapshot

	onPoll  func(err error)
	onEvent func(Event)
}

// PollerOption configures the poller.
type PollerOption func(*Poller)

// WithInterval sets a custom poll interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

// NewPoller creates a poller reading from source.
func NewPoller(source Source, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		interval: DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// OnPoll sets a callback invoked after every poll cycle with the fetch
// error, if any.
func (p *Poller) OnPoll(fn func(err error)) {
	p.onPoll = fn
}

// OnEvent sets a callback invoked for every emitted event.
func (p *Poller) OnEvent(fn func(Event)) {
	p.onEvent = fn
}

// Run polls until ctx is cancelled, emitting events to the channel.
// Fetch and decode failures skip the cycle and are never fatal. A
// snapshot structurally equal to the previous one emits nothing. The
// send blocks while the consumer is busy; with a capacity-1 channel
// that stalls the poller rather than queueing events, which is the
// ordering guarantee the consumer relies on.
//
// The only non-nil return is ctx.Err().
func (p *Poller) Run(ctx context.Context, events chan<- Event) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		timer.Reset(p.interval)

		snap, err := p.source.Latest(ctx)
		if p.onPoll != nil {
			p.onPoll(err)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[POLL] fetch failed, skipping cycle: %v", err)
			continue
		}

		if *snap == p.last {
			continue
		}

		event := Classify(*snap)
		p.last = *snap

		select {
		case events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}

		if p.onEvent != nil {
			p.onEvent(event)
		}
	}
}

// StartPoller runs a poller over source with default pacing. It is the
// producer half of the host process's two long-running entry points.
func StartPoller(ctx context.Context, source Source, events chan<- Event) error {
	return NewPoller(source).Run(ctx, events)
}
