package bracket

import (
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

type ScoreStatus string

const (
	ScorePending   ScoreStatus = "pending"
	ScoreDisputed  ScoreStatus = "disputed"
	ScoreConfirmed ScoreStatus = "confirmed"
)

type Segment string

const (
	WinnersSegment    Segment = "winners"
	LosersSegment     Segment = "losers"
	GrandFinalSegment Segment = "grand_final"
	SwissSegment      Segment = "swiss"
	RoundRobinSegment Segment = "round_robin"
)

type Slot int

const (
	Player1 Slot = 1
	Player2 Slot = 2
)

func (s Slot) String() string {
	if s == Player2 {
		return "player2"
	}
	return "player1"
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	// Position in the topology. Segment is nil for single elimination.
	RoundNumber int      `db:"round_number" json:"round_number"`
	MatchNumber int      `db:"match_number" json:"match_number"`
	Segment     *Segment `db:"bracket_segment" json:"bracket_segment,omitempty"`
	IsReset     bool     `db:"is_reset" json:"is_reset"`
	IsBye       bool     `db:"is_bye" json:"is_bye"`

	Player1ID *uuid.UUID `db:"player1_id" json:"player1_id,omitempty"`
	Player2ID *uuid.UUID `db:"player2_id" json:"player2_id,omitempty"`
	WinnerID  *uuid.UUID `db:"winner_id" json:"winner_id,omitempty"`

	Status MatchStatus `db:"status" json:"status"`

	ScoreP1         *int        `db:"score_p1" json:"score_p1,omitempty"`
	ScoreP2         *int        `db:"score_p2" json:"score_p2,omitempty"`
	ScoreP1Reported *int        `db:"score_p1_reported" json:"score_p1_reported,omitempty"`
	ScoreP2Reported *int        `db:"score_p2_reported" json:"score_p2_reported,omitempty"`
	ReportedByTeam1 bool        `db:"reported_by_team1" json:"reported_by_team1"`
	ReportedByTeam2 bool        `db:"reported_by_team2" json:"reported_by_team2"`
	ScoreStatus     ScoreStatus `db:"score_status" json:"score_status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SegmentOrEmpty returns the bracket segment, or "" for single elimination matches.
func (m *Match) SegmentOrEmpty() Segment {
	if m.Segment == nil {
		return ""
	}
	return *m.Segment
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchCompleted
}

func (m *Match) SlotOf(participantID uuid.UUID) (Slot, bool) {
	if utils.Is(m.Player1ID, participantID) {
		return Player1, true
	}
	if utils.Is(m.Player2ID, participantID) {
		return Player2, true
	}
	return 0, false
}

func (m *Match) Occupant(slot Slot) *uuid.UUID {
	if slot == Player2 {
		return m.Player2ID
	}
	return m.Player1ID
}

func (m *Match) HasBothPlayers() bool {
	return m.Player1ID != nil && m.Player2ID != nil
}

func (m *Match) Contains(participantID uuid.UUID) bool {
	_, ok := m.SlotOf(participantID)
	return ok
}

// Opponent returns the other participant of the match, if seated.
func (m *Match) Opponent(participantID uuid.UUID) *uuid.UUID {
	slot, ok := m.SlotOf(participantID)
	if !ok {
		return nil
	}
	if slot == Player1 {
		return m.Player2ID
	}
	return m.Player1ID
}

// Loser returns the participant that did not win a completed match. Nil for draws and byes.
func (m *Match) Loser() *uuid.UUID {
	if m.WinnerID == nil {
		return nil
	}
	return m.Opponent(*m.WinnerID)
}

func SegmentPtr(s Segment) *Segment {
	return &s
}
