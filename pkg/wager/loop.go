// Package wager consumes match events and turns them into bets and
// settled ratings.
package wager

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/phenomenon0/saltbet-agent/pkg/elo"
	"github.com/phenomenon0/saltbet-agent/pkg/feed"
	"github.com/phenomenon0/saltbet-agent/pkg/session"
	"github.com/phenomenon0/saltbet-agent/pkg/store"
)

// Store is the persistence surface the loop needs.
type Store interface {
	GetParty(ctx context.Context, name string) store.Party
	PutParty(ctx context.Context, party store.Party) error
	PutSettledMatch(ctx context.Context, outcome elo.Outcome, first, second string)
}

// Gateway is the authenticated session surface the loop needs.
type Gateway interface {
	Login(ctx context.Context) error
	Balance(ctx context.Context) (decimal.Decimal, error)
	PlaceBet(ctx context.Context, side session.Side, amount decimal.Decimal) error
}

// Bet describes a wager the loop placed. Balance is the balance
// observed while sizing the wager, zero if the fetch failed.
type Bet struct {
	Side    session.Side    `json:"side"`
	On      string          `json:"on"`
	Against string          `json:"against"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
	Retried bool            `json:"retried"`
	At      time.Time       `json:"at"`
}

// Settlement describes a settled match the loop committed.
type Settlement struct {
	Outcome      elo.Outcome `json:"-"`
	OutcomeLabel string      `json:"outcome"`
	First        store.Party `json:"first"`
	Second       store.Party `json:"second"`
	At           time.Time   `json:"at"`
}

// Status is a point-in-time summary of the loop for the status API.
type Status struct {
	Events      int       `json:"events"`
	Bets        int       `json:"bets"`
	Settlements int       `json:"settlements"`
	LastEventAt time.Time `json:"last_event_at,omitempty"`
}

// Loop is the single consumer of the poller's event channel. It is the
// sole mutator of party state: on Opened it predicts and bets, on
// Decided it updates ratings and commits them.
type Loop struct {
	store   Store
	gateway Gateway

	mu     sync.RWMutex
	status Status

	onBet     func(Bet)
	onSettled func(Settlement)
}

// NewLoop creates a decision loop over the given store and gateway.
func NewLoop(store Store, gateway Gateway) *Loop {
	return &Loop{store: store, gateway: gateway}
}

// OnBet sets a callback invoked after every accepted wager.
func (l *Loop) OnBet(fn func(Bet)) {
	l.onBet = fn
}

// OnSettled sets a callback invoked after every committed settlement.
func (l *Loop) OnSettled(fn func(Settlement)) {
	l.onSettled = fn
}

// Status returns a snapshot of the loop's counters.
func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Run consumes events in FIFO order until the channel closes, the
// context is cancelled, or a fatal error occurs. The only fatal class
// is a desynchronized session: a rejected bet followed by a failed
// re-login, or by a second rejection after a successful re-login. The
// loop returns rather than keep betting with credentials it cannot
// trust; restart policy belongs to the caller.
func (l *Loop) Run(ctx context.Context, events <-chan feed.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}

			l.mu.Lock()
			l.status.Events++
			l.status.LastEventAt = time.Now()
			l.mu.Unlock()

			if err := l.handle(ctx, event); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) handle(ctx context.Context, event feed.Event) error {
	switch event.Kind {
	case feed.KindOpened:
		return l.handleOpened(ctx, event.First, event.Second)
	case feed.KindDecided:
		l.handleDecided(ctx, event.Outcome, event.First, event.Second)
		return nil
	default:
		// Locked and Unknown carry nothing actionable.
		return nil
	}
}

func (l *Loop) handleOpened(ctx context.Context, firstName, secondName string) error {
	first := l.store.GetParty(ctx, firstName)
	second := l.store.GetParty(ctx, secondName)

	// Ties go to the first party.
	side := session.SideFirst
	pick, against := first, second
	if elo.Expected(first.Rating, second.Rating) < 0.5 {
		side = session.SideSecond
		pick, against = second, first
	}

	amount, balance := l.wagerAmount(ctx)

	bet := Bet{
		Side:    side,
		On:      pick.Name,
		Against: against.Name,
		Amount:  amount,
		Balance: balance,
		At:      time.Now(),
	}
	if err := l.gateway.PlaceBet(ctx, side, amount); err != nil {
		log.Printf("[BET] rejected, re-authenticating: %v", err)

		if lerr := l.gateway.Login(ctx); lerr != nil {
			return fmt.Errorf("re-login after rejected bet on %q: %w", pick.Name, lerr)
		}
		if rerr := l.gateway.PlaceBet(ctx, side, amount); rerr != nil {
			return fmt.Errorf("place bet on %q after re-login: %w", pick.Name, rerr)
		}
		bet.Retried = true
	}

	log.Printf("[BET] %s on %s (vs %s, rated %d vs %d)",
		amount, pick.Name, against.Name, pick.Rating, against.Rating)

	l.mu.Lock()
	l.status.Bets++
	l.mu.Unlock()

	if l.onBet != nil {
		l.onBet(bet)
	}
	return nil
}

func (l *Loop) handleDecided(ctx context.Context, outcome elo.Outcome, firstName, secondName string) {
	first := l.store.GetParty(ctx, firstName)
	second := l.store.GetParty(ctx, secondName)

	elo.Update(outcome, &first.Rating, &second.Rating)

	if err := l.store.PutParty(ctx, first); err != nil {
		log.Printf("[SETTLE] persist %q: %v", first.Name, err)
	}
	if err := l.store.PutParty(ctx, second); err != nil {
		log.Printf("[SETTLE] persist %q: %v", second.Name, err)
	}
	l.store.PutSettledMatch(ctx, outcome, firstName, secondName)

	log.Printf("[SETTLE] %s: %s (%d) vs %s (%d)",
		outcome, first.Name, first.Rating, second.Name, second.Rating)

	l.mu.Lock()
	l.status.Settlements++
	l.mu.Unlock()

	if l.onSettled != nil {
		l.onSettled(Settlement{
			Outcome:      outcome,
			OutcomeLabel: outcome.String(),
			First:        first,
			Second:       second,
			At:           time.Now(),
		})
	}
}

// RunDecisionLoop consumes events with a fresh loop. It is the
// consumer half of the host process's two long-running entry points.
func RunDecisionLoop(ctx context.Context, events <-chan feed.Event, s Store, g Gateway) error {
	return NewLoop(s, g).Run(ctx, events)
}
