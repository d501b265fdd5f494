package bracket

import (
	"time"

	"github.com/google/uuid"
)

// ScoreReport is one side's claim about a match result. Rows are append-only;
// only IsResolved ever changes.
type ScoreReport struct {
	ID            uuid.UUID `db:"id" json:"id"`
	MatchID       uuid.UUID `db:"match_id" json:"match_id"`
	TeamID        uuid.UUID `db:"team_id" json:"team_id"`
	ScoreTeam     int       `db:"score_team" json:"score_team"`
	ScoreOpponent int       `db:"score_opponent" json:"score_opponent"`
	ReportedBy    string    `db:"reported_by" json:"reported_by"`
	IsResolved    bool      `db:"is_resolved" json:"is_resolved"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// GameScoreReport is the per-game counterpart of ScoreReport.
type GameScoreReport struct {
	ID            uuid.UUID `db:"id" json:"id"`
	GameID        uuid.UUID `db:"game_id" json:"game_id"`
	TeamID        uuid.UUID `db:"team_id" json:"team_id"`
	ScoreTeam     int       `db:"score_team" json:"score_team"`
	ScoreOpponent int       `db:"score_opponent" json:"score_opponent"`
	ReportedBy    string    `db:"reported_by" json:"reported_by"`
	IsResolved    bool      `db:"is_resolved" json:"is_resolved"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
