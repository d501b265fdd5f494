package bracket

import (
	"time"

	"github.com/google/uuid"
)

// MatchGame is one game of a best-of-N series.
type MatchGame struct {
	ID         uuid.UUID `db:"id" json:"id"`
	MatchID    uuid.UUID `db:"match_id" json:"match_id"`
	GameNumber int       `db:"game_number" json:"game_number"`

	Team1Score         *int        `db:"team1_score" json:"team1_score,omitempty"`
	Team2Score         *int        `db:"team2_score" json:"team2_score,omitempty"`
	Team1ScoreReported *int        `db:"team1_score_reported" json:"team1_score_reported,omitempty"`
	Team2ScoreReported *int        `db:"team2_score_reported" json:"team2_score_reported,omitempty"`
	WinnerTeamID       *uuid.UUID  `db:"winner_team_id" json:"winner_team_id,omitempty"`
	Status             MatchStatus `db:"status" json:"status"`
	ScoreStatus        ScoreStatus `db:"score_status" json:"score_status"`
	ReportedByTeam1    bool        `db:"reported_by_team1" json:"reported_by_team1"`
	ReportedByTeam2    bool        `db:"reported_by_team2" json:"reported_by_team2"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (g *MatchGame) IsCompleted() bool {
	return g.Status == MatchCompleted
}
