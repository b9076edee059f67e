package feed

import "github.com/phenomenon0/saltbet-agent/pkg/elo"

// Snapshot is one polled read of the match-state endpoint. Only the
// player names and status are interpreted; the remaining fields are
// carried so that structural equality covers everything the feed
// reports. The struct is comparable and drives de-duplication.
//
// This response shape has not changed in years.
type Snapshot struct {
	P1Name    string `json:"p1name"`
	P2Name    string `json:"p2name"`
	P1Total   string `json:"p1total"`
	P2Total   string `json:"p2total"`
	Status    string `json:"status"`
	Alert     string `json:"alert"`
	X         int    `json:"x"`
	Remaining string `json:"remaining"`
}

// Kind identifies the transition a snapshot represents.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindOpened  Kind = "opened"
	KindLocked  Kind = "locked"
	KindDecided Kind = "decided"
)

// Event is a de-duplicated match transition derived from a snapshot.
// The zero value has KindUnknown and is ignored by consumers.
type Event struct {
	Kind    Kind        `json:"kind"`
	Outcome elo.Outcome `json:"outcome,omitempty"`
	First   string      `json:"first,omitempty"`
	Second  string      `json:"second,omitempty"`
}

// Classify maps a snapshot's status field onto an Event.
// "open" and "locked" are the two live phases; any other status is an
// outcome code and settles the match (see elo.OutcomeFromCode for the
// code set and its draw fallback).
func Classify(s Snapshot) Event {
	switch s.Status {
	case "locked":
		return Event{Kind: KindLocked}
	case "open":
		return Event{Kind: KindOpened, First: s.P1Name, Second: s.P2Name}
	default:
		return Event{
			Kind:    KindDecided,
			Outcome: elo.OutcomeFromCode(s.Status),
			First:   s.P1Name,
			Second:  s.P2Name,
		}
	}
}
