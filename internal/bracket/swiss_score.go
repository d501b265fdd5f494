package bracket

import "github.com/google/uuid"

type SwissScore struct {
	TournamentID  uuid.UUID `db:"tournament_id" json:"tournament_id"`
	TeamID        uuid.UUID `db:"team_id" json:"team_id"`
	Wins          int       `db:"wins" json:"wins"`
	Losses        int       `db:"losses" json:"losses"`
	Draws         int       `db:"draws" json:"draws"`
	BuchholzScore int       `db:"buchholz_score" json:"buchholz_score"`
	OppWins       int       `db:"opp_wins" json:"opp_wins"`
}
