package notify

import "github.com/google/uuid"

// MatchUpcoming is emitted when both slots of a match become filled.
type MatchUpcoming struct {
	TournamentID uuid.UUID
	MatchID      uuid.UUID
	Player1ID    uuid.UUID
	Player2ID    uuid.UUID
}

// MatchResult is emitted when a match is finalized. WinnerID is nil for a draw.
type MatchResult struct {
	TournamentID uuid.UUID
	MatchID      uuid.UUID
	WinnerID     *uuid.UUID
	ScoreP1      int
	ScoreP2      int
	Override     bool
}

// ScoreDeclared is emitted for every accepted declaration.
type ScoreDeclared struct {
	TournamentID uuid.UUID
	MatchID      uuid.UUID
	GameID       *uuid.UUID
	TeamID       uuid.UUID
	Outcome      string
}

// ScoreDisputed is emitted when two declarations disagree. GameID is set for
// per-game disputes.
type ScoreDisputed struct {
	TournamentID uuid.UUID
	MatchID      uuid.UUID
	GameID       *uuid.UUID
}

type TournamentCompleted struct {
	TournamentID uuid.UUID
}

// RoundClosed is emitted when the last pending match of a Swiss round completes.
type RoundClosed struct {
	TournamentID uuid.UUID
	Round        int
}

type IntegrityWarning struct {
	TournamentID uuid.UUID
	MatchID      uuid.UUID
	Reason       string
}
