package wager

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
)

var (
	// defaultWager is staked whenever the balance is unknown or small.
	defaultWager = decimal.NewFromInt(420)

	// tithingFloor is the balance above which a tenth is staked instead.
	tithingFloor = decimal.NewFromInt(4200)

	ten = decimal.NewFromInt(10)
)

// wagerAmount sizes the next bet: a tenth of the balance (rounded
// down to a whole unit) once the balance reaches the floor, the fixed
// default otherwise. A failed balance fetch falls back to the default
// rather than blocking the bet; in that case the returned balance is
// zero.
func (l *Loop) wagerAmount(ctx context.Context) (amount, balance decimal.Decimal) {
	balance, err := l.gateway.Balance(ctx)
	if err != nil {
		log.Printf("[BET] balance unavailable, using default wager: %v", err)
		return defaultWager, decimal.Zero
	}
	if balance.LessThan(tithingFloor) {
		return defaultWager, balance
	}
	return balance.Div(ten).Floor(), balance
}
