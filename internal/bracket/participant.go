package bracket

import "github.com/google/uuid"

type Participant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	TeamID       uuid.UUID `db:"team_id" json:"team_id"`
	Name         string    `db:"name" json:"name"`
	Seed         *int      `db:"seed" json:"seed,omitempty"`
	CheckedIn    bool      `db:"checked_in" json:"checked_in"`
	Disqualified bool      `db:"disqualified" json:"disqualified"`
}
