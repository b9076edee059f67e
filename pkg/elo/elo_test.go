package elo

import (
	"math"
	"testing"
)

func TestExpectedEqualRatings(t *testing.T) {
	for _, r := range []Rating{-200, 0, 800, 1000, 2500} {
		if got := Expected(r, r); got != 0.5 {
			t.Errorf("Expected(%d, %d) = %v, want exactly 0.5", r, r, got)
		}
	}
}

func TestExpectedHigherRatingFavored(t *testing.T) {
	if got := Expected(1200, 1000); got <= 0.5 {
		t.Errorf("Expected(1200, 1000) = %v, want > 0.5", got)
	}
	if got := Expected(800, 1000); got >= 0.5 {
		t.Errorf("Expected(800, 1000) = %v, want < 0.5", got)
	}
}

func TestExpectedComplementary(t *testing.T) {
	pairs := [][2]Rating{{800, 1000}, {1000, 1000}, {1337, 420}, {0, 3000}}
	for _, p := range pairs {
		sum := Expected(p[0], p[1]) + Expected(p[1], p[0])
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("Expected(%d,%d) + Expected(%d,%d) = %v, want 1.0",
				p[0], p[1], p[1], p[0], sum)
		}
	}
}

func TestUpdateFirstWins(t *testing.T) {
	a, b := Rating(800), Rating(1000)
	Update(FirstWins, &a, &b)
	if a <= 800 {
		t.Errorf("winner rating = %d, want > 800", a)
	}
	if b >= 1000 {
		t.Errorf("loser rating = %d, want < 1000", b)
	}
}

func TestUpdateFirstWinsEqualRatingsMoveApart(t *testing.T) {
	a, b := Rating(1000), Rating(1000)
	Update(FirstWins, &a, &b)
	if a != 1016 {
		t.Errorf("winner rating = %d, want 1016", a)
	}
	if b != 984 {
		t.Errorf("loser rating = %d, want 984", b)
	}
}

func TestUpdateRepeatedLossesLowerRating(t *testing.T) {
	a, b := Rating(800), Rating(1000)
	for i := 0; i < 5; i++ {
		Update(SecondWins, &a, &b)
	}
	if a >= 800 {
		t.Errorf("rating after five losses = %d, want < 800", a)
	}
	if b <= 1000 {
		t.Errorf("winner rating after five wins = %d, want > 1000", b)
	}
}

func TestUpdateDrawPreservesGap(t *testing.T) {
	a, b := Rating(800), Rating(1000)
	for i := 0; i < 3; i++ {
		Update(Draw, &a, &b)
	}
	if b <= a {
		t.Errorf("after three draws b = %d, a = %d; gap should be preserved", b, a)
	}
	if b-a != 200 {
		t.Errorf("gap after three draws = %d, want 200", b-a)
	}
}

func TestUpdateDrawEqualStaysEqual(t *testing.T) {
	a, b := Rating(1000), Rating(1000)
	for i := 0; i < 3; i++ {
		Update(Draw, &a, &b)
	}
	if a != b {
		t.Errorf("after three draws a = %d, b = %d, want equal", a, b)
	}
	if a != 1048 {
		t.Errorf("rating after three draws = %d, want 1048", a)
	}
}

func TestUpdateDeltasFlooredTowardNegativeInfinity(t *testing.T) {
	// Expected(800, 1000) ~= 0.24, so the loser's delta is K*(-0.24) = -7.69,
	// which must floor to -8, not truncate to -7.
	a, b := Rating(800), Rating(1000)
	Update(SecondWins, &a, &b)
	if a != 792 {
		t.Errorf("loser rating = %d, want 792", a)
	}
	if b != 1007 {
		t.Errorf("winner rating = %d, want 1007", b)
	}
}

func TestOutcomeFromCode(t *testing.T) {
	cases := map[string]Outcome{
		"1":     FirstWins,
		"2":     SecondWins,
		"3":     Draw,
		"weird": Draw,
		"":      Draw,
	}
	for code, want := range cases {
		if got := OutcomeFromCode(code); got != want {
			t.Errorf("OutcomeFromCode(%q) = %v, want %v", code, got, want)
		}
	}
}
