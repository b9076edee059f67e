// Package elo implements the skill-rating model used to predict match winners.
package elo

import "math"

const (
	// InitialRating is assigned to a party the first time it is seen.
	InitialRating Rating = 1000

	// KFactor scales the rating adjustment applied per settled match.
	KFactor = 32

	scale = 400
)

// Rating is a relative skill score. Higher beats lower, probabilistically.
type Rating int

// Outcome is the settled result of a match.
type Outcome int

const (
	FirstWins Outcome = iota
	SecondWins
	Draw
)

// String returns the outcome code used in persisted settlement records.
func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first"
	case SecondWins:
		return "second"
	default:
		return "draw"
	}
}

// OutcomeFromCode decodes a wire status code into an Outcome.
// "1" is a first-party win, "2" a second-party win; every other code is
// treated as a draw. The fallback is deliberate: the feed reports team
// fights and exhibition oddities with codes this model does not track.
func OutcomeFromCode(code string) Outcome {
	switch code {
	case "1":
		return FirstWins
	case "2":
		return SecondWins
	default:
		return Draw
	}
}

// Expected returns the probability, in [0, 1], that a outscores b.
// Equal ratings return exactly 0.5 rather than going through the
// logistic curve, so tests can assert on the value without a tolerance.
func Expected(a, b Rating) float64 {
	if a == b {
		return 0.5
	}
	return 1 / (1 + math.Pow(10, float64(b-a)/scale))
}

// Update applies the K-factor rating adjustment for a settled match,
// mutating both ratings in place. Deltas are floored toward negative
// infinity before being added.
//
// A draw adds a flat KFactor/2 to both sides instead of pulling the
// ratings toward each other; the gap between unequal ratings is
// preserved. This matches the behavior the persisted ratings were
// built on, so it must not be replaced with the textbook draw rule.
func Update(outcome Outcome, a, b *Rating) {
	e := Expected(*a, *b)

	var da, db float64
	switch outcome {
	case FirstWins:
		da = KFactor * (1 - e)
		db = KFactor * (e - 1)
	case SecondWins:
		da = KFactor * (0 - e)
		db = KFactor * e
	case Draw:
		da = KFactor * 0.5
		db = KFactor * 0.5
	}

	*a += Rating(math.Floor(da))
	*b += Rating(math.Floor(db))
}
