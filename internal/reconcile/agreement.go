// Package reconcile models the two-sided score declaration workflow of a
// match or game as a two-slot agreement record.
package reconcile

import (
	"errors"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

var ErrUnknownTeam = errors.New("team does not take part in this match")

type State string

const (
	StatePending   State = "pending"
	StateAwaiting  State = "awaiting"
	StateConfirmed State = "confirmed"
	StateDisputed  State = "disputed"
)

// Declaration is one side's claim, from its own point of view.
type Declaration struct {
	TeamID     uuid.UUID
	Own        int
	Opponent   int
	ReporterID string
}

// Outcome is the evaluated agreement, with scores oriented to team1/team2.
// Winner is nil for a draw or when the state is not confirmed.
type Outcome struct {
	State  State      `json:"state"`
	Score1 int        `json:"score1"`
	Score2 int        `json:"score2"`
	Winner *uuid.UUID `json:"winner_id,omitempty"`
}

type Agreement struct {
	Team1 uuid.UUID
	Team2 uuid.UUID

	slots [2]*Declaration
}

func New(team1, team2 uuid.UUID) *Agreement {
	return &Agreement{Team1: team1, Team2: team2}
}

// FromReports rebuilds the agreement from unresolved log entries in
// chronological order. The latest entry of each side wins.
func FromReports(team1, team2 uuid.UUID, reports []bracket.ScoreReport) (*Agreement, error) {
	a := New(team1, team2)
	for _, r := range reports {
		if r.IsResolved {
			continue
		}
		if err := a.Record(Declaration{TeamID: r.TeamID, Own: r.ScoreTeam, Opponent: r.ScoreOpponent, ReporterID: r.ReportedBy}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// FromGameReports is FromReports for per-game log entries.
func FromGameReports(team1, team2 uuid.UUID, reports []bracket.GameScoreReport) (*Agreement, error) {
	a := New(team1, team2)
	for _, r := range reports {
		if r.IsResolved {
			continue
		}
		if err := a.Record(Declaration{TeamID: r.TeamID, Own: r.ScoreTeam, Opponent: r.ScoreOpponent, ReporterID: r.ReportedBy}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agreement) slotIndex(teamID uuid.UUID) (int, error) {
	switch teamID {
	case a.Team1:
		return 0, nil
	case a.Team2:
		return 1, nil
	}
	return 0, ErrUnknownTeam
}

// Record stores d in its side's slot, replacing any earlier declaration.
func (a *Agreement) Record(d Declaration) error {
	i, err := a.slotIndex(d.TeamID)
	if err != nil {
		return err
	}
	a.slots[i] = &d
	return nil
}

func (a *Agreement) Declaration(teamID uuid.UUID) *Declaration {
	i, err := a.slotIndex(teamID)
	if err != nil {
		return nil
	}
	return a.slots[i]
}

func (a *Agreement) State() State {
	if a.slots[0] == nil || a.slots[1] == nil {
		return StatePending
	}
	return StateAwaiting
}

// Concordant reports whether each side's own score is the other side's
// opponent score.
func Concordant(x, y Declaration) bool {
	return x.Own == y.Opponent && x.Opponent == y.Own
}

func (a *Agreement) Evaluate() Outcome {
	if a.State() == StatePending {
		return Outcome{State: StatePending}
	}
	d1, d2 := *a.slots[0], *a.slots[1]
	if !Concordant(d1, d2) {
		return Outcome{State: StateDisputed}
	}
	return Decide(a.Team1, a.Team2, d1.Own, d2.Own)
}

// Decide builds a confirmed outcome from an authoritative score pair.
func Decide(team1, team2 uuid.UUID, score1, score2 int) Outcome {
	out := Outcome{State: StateConfirmed, Score1: score1, Score2: score2}
	switch {
	case score1 > score2:
		out.Winner = &team1
	case score2 > score1:
		out.Winner = &team2
	}
	return out
}
