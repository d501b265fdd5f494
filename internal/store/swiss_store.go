package store

import (
	"context"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SwissStore struct {
	db *sqlx.DB
}

func NewSwissStore(db *sqlx.DB) *SwissStore {
	return &SwissStore{db: db}
}

func (s *SwissStore) CreateScores(ctx context.Context, tx *sqlx.Tx, scores []bracket.SwissScore) error {
	if len(scores) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO swiss_scores (tournament_id, team_id, wins, losses, draws, buchholz_score, opp_wins)
		VALUES (:tournament_id, :team_id, :wins, :losses, :draws, :buchholz_score, :opp_wins)`, scores)
	return err
}

func (s *SwissStore) GetScores(ctx context.Context, q Queryer, tournamentID uuid.UUID) ([]bracket.SwissScore, error) {
	var scores []bracket.SwissScore
	err := sqlx.SelectContext(ctx, q, &scores, s.db.Rebind(`SELECT * FROM swiss_scores WHERE tournament_id = ?
		ORDER BY wins DESC, buchholz_score DESC, opp_wins DESC, team_id ASC`), tournamentID)
	return scores, err
}

// SaveScores writes back the whole ledger of a tournament.
func (s *SwissStore) SaveScores(ctx context.Context, tx *sqlx.Tx, scores []bracket.SwissScore) error {
	for _, score := range scores {
		_, err := tx.NamedExecContext(ctx, `UPDATE swiss_scores SET wins = :wins, losses = :losses, draws = :draws,
			buchholz_score = :buchholz_score, opp_wins = :opp_wins
			WHERE tournament_id = :tournament_id AND team_id = :team_id`, score)
		if err != nil {
			return err
		}
	}
	return nil
}
