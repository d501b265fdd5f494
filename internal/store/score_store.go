package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ScoreStore holds the declaration log and the per-game rows of best-of series.
type ScoreStore struct {
	db *sqlx.DB
}

func NewScoreStore(db *sqlx.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) InsertReport(ctx context.Context, tx *sqlx.Tx, report *bracket.ScoreReport) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO score_reports (id, match_id, team_id, score_team, score_opponent, reported_by, is_resolved, created_at)
		VALUES (:id, :match_id, :team_id, :score_team, :score_opponent, :reported_by, :is_resolved, :created_at)`, report)
	return err
}

func (s *ScoreStore) UnresolvedReports(ctx context.Context, q Queryer, matchID uuid.UUID) ([]bracket.ScoreReport, error) {
	var reports []bracket.ScoreReport
	err := sqlx.SelectContext(ctx, q, &reports, s.db.Rebind(`SELECT * FROM score_reports
		WHERE match_id = ? AND is_resolved = ? ORDER BY created_at ASC`), matchID, false)
	return reports, err
}

func (s *ScoreStore) ReportsForMatch(ctx context.Context, q Queryer, matchID uuid.UUID) ([]bracket.ScoreReport, error) {
	var reports []bracket.ScoreReport
	err := sqlx.SelectContext(ctx, q, &reports, s.db.Rebind(`SELECT * FROM score_reports
		WHERE match_id = ? ORDER BY created_at ASC`), matchID)
	return reports, err
}

// ResolveReports flips every pending entry of the match to resolved. A non-nil
// teamID limits it to that side's entries.
func (s *ScoreStore) ResolveReports(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, teamID *uuid.UUID) (int64, error) {
	query := "UPDATE score_reports SET is_resolved = ? WHERE match_id = ? AND is_resolved = ?"
	args := []any{true, matchID, false}
	if teamID != nil {
		query += " AND team_id = ?"
		args = append(args, *teamID)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *ScoreStore) InsertGameReport(ctx context.Context, tx *sqlx.Tx, report *bracket.GameScoreReport) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO game_score_reports (id, game_id, team_id, score_team, score_opponent, reported_by, is_resolved, created_at)
		VALUES (:id, :game_id, :team_id, :score_team, :score_opponent, :reported_by, :is_resolved, :created_at)`, report)
	return err
}

func (s *ScoreStore) UnresolvedGameReports(ctx context.Context, q Queryer, gameID uuid.UUID) ([]bracket.GameScoreReport, error) {
	var reports []bracket.GameScoreReport
	err := sqlx.SelectContext(ctx, q, &reports, s.db.Rebind(`SELECT * FROM game_score_reports
		WHERE game_id = ? AND is_resolved = ? ORDER BY created_at ASC`), gameID, false)
	return reports, err
}

func (s *ScoreStore) ResolveGameReports(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, teamID *uuid.UUID) (int64, error) {
	query := "UPDATE game_score_reports SET is_resolved = ? WHERE game_id = ? AND is_resolved = ?"
	args := []any{true, gameID, false}
	if teamID != nil {
		query += " AND team_id = ?"
		args = append(args, *teamID)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *ScoreStore) GetGames(ctx context.Context, q Queryer, matchID uuid.UUID) ([]bracket.MatchGame, error) {
	var games []bracket.MatchGame
	err := sqlx.SelectContext(ctx, q, &games, s.db.Rebind(`SELECT * FROM match_games
		WHERE match_id = ? ORDER BY game_number ASC`), matchID)
	return games, err
}

func (s *ScoreStore) GetGame(ctx context.Context, q Queryer, id uuid.UUID) (*bracket.MatchGame, error) {
	var game bracket.MatchGame
	if err := sqlx.GetContext(ctx, q, &game, s.db.Rebind("SELECT * FROM match_games WHERE id = ?"), id); err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return &game, nil
}

// GetOrCreateGame returns the game row for a game number, creating it on
// first use.
func (s *ScoreStore) GetOrCreateGame(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, number int) (*bracket.MatchGame, error) {
	var game bracket.MatchGame
	err := tx.GetContext(ctx, &game, tx.Rebind("SELECT * FROM match_games WHERE match_id = ? AND game_number = ?"), matchID, number)
	if err == nil {
		return &game, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	game = bracket.MatchGame{
		ID:          uuid.New(),
		MatchID:     matchID,
		GameNumber:  number,
		Status:      bracket.MatchPending,
		ScoreStatus: bracket.ScorePending,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO match_games (id, match_id, game_number, team1_score, team2_score,
		team1_score_reported, team2_score_reported, winner_team_id, status, score_status, reported_by_team1, reported_by_team2, created_at)
		VALUES (:id, :match_id, :game_number, :team1_score, :team2_score,
		:team1_score_reported, :team2_score_reported, :winner_team_id, :status, :score_status, :reported_by_team1, :reported_by_team2, :created_at)`, &game)
	if err != nil {
		return nil, fmt.Errorf("create game %d: %w", number, err)
	}
	return &game, nil
}

func (s *ScoreStore) RecordGameDeclaration(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, slot bracket.Slot, own, opponent int) error {
	t1, t2, flag := own, opponent, "reported_by_team1"
	if slot == bracket.Player2 {
		t1, t2, flag = opponent, own, "reported_by_team2"
	}
	query := fmt.Sprintf("UPDATE match_games SET team1_score_reported = ?, team2_score_reported = ?, %s = ? WHERE id = ?", flag)
	result, err := tx.ExecContext(ctx, tx.Rebind(query), t1, t2, true, gameID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (s *ScoreStore) SetGameScoreStatus(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, status bracket.ScoreStatus) error {
	result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE match_games SET score_status = ? WHERE id = ?"), status, gameID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (s *ScoreStore) FinalizeGame(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, score1, score2 int, winnerID *uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE match_games SET team1_score = ?, team2_score = ?, winner_team_id = ?, status = ?, score_status = ?,
		reported_by_team1 = ?, reported_by_team2 = ?
		WHERE id = ? AND status <> ?`),
		score1, score2, winnerID, bracket.MatchCompleted, bracket.ScoreConfirmed, true, true, gameID, bracket.MatchCompleted)
	if err != nil {
		return false, err
	}
	return applied(result)
}
