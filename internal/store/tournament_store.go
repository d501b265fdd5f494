package store

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, format, best_of, status, maps_pool, swiss_rounds, current_round, created_at)
        VALUES (:id, :name, :format, :best_of, :status, :maps_pool, :swiss_rounds, :current_round, :created_at)`, tournament)
	return err
}

func (s *TournamentStore) CreateParticipants(ctx context.Context, tx *sqlx.Tx, participants []bracket.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO participants (id, tournament_id, team_id, name, seed, checked_in, disqualified)
            VALUES (:id, :tournament_id, :team_id, :name, :seed, :checked_in, :disqualified)`, participants)
	return err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, tournament_id, round_number, match_number, bracket_segment, is_reset, is_bye,
		player1_id, player2_id, winner_id, status, score_p1, score_p2, score_p1_reported, score_p2_reported,
		reported_by_team1, reported_by_team2, score_status, created_at)
		VALUES (:id, :tournament_id, :round_number, :match_number, :bracket_segment, :is_reset, :is_bye,
		:player1_id, :player2_id, :winner_id, :status, :score_p1, :score_p2, :score_p1_reported, :score_p2_reported,
		:reported_by_team1, :reported_by_team2, :score_status, :created_at)`, matches)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, q Queryer, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, s.db.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err, ErrTournamentNotFound)
	}
	return &tournament, nil
}

// LockTournament reads the tournament inside tx and, on Postgres, holds its
// row lock until commit so completion events of one tournament run one at a
// time. SQLite already serializes writers.
func (s *TournamentStore) LockTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	query := "SELECT * FROM tournaments WHERE id = ?"
	if s.db.DriverName() == "postgres" {
		query += " FOR UPDATE"
	}
	var tournament bracket.Tournament
	if err := tx.GetContext(ctx, &tournament, tx.Rebind(query), id); err != nil {
		return nil, notFound(err, ErrTournamentNotFound)
	}
	return &tournament, nil
}

func (s *TournamentStore) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.TournamentStatus) error {
	result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE tournaments SET status = ? WHERE id = ?"), status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (s *TournamentStore) SetCurrentRound(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, round int) error {
	result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE tournaments SET current_round = ? WHERE id = ?"), round, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// GetParticipants returns participants in seed order; unseeded ones come last.
func (s *TournamentStore) GetParticipants(ctx context.Context, q Queryer, tournamentID uuid.UUID) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := sqlx.SelectContext(ctx, q, &participants, s.db.Rebind(`SELECT * FROM participants WHERE tournament_id = ?
		ORDER BY CASE WHEN seed IS NULL THEN 1 ELSE 0 END, seed ASC, name ASC`), tournamentID)
	return participants, err
}

func (s *TournamentStore) GetMatches(ctx context.Context, q Queryer, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, s.db.Rebind(`SELECT * FROM matches WHERE tournament_id = ?
		ORDER BY round_number ASC, match_number ASC`), tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, q Queryer, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := sqlx.GetContext(ctx, q, &match, s.db.Rebind("SELECT * FROM matches WHERE id = ?"), id); err != nil {
		return nil, notFound(err, ErrMatchNotFound)
	}
	return &match, nil
}

func slotColumn(slot bracket.Slot) string {
	if slot == bracket.Player2 {
		return "player2_id"
	}
	return "player1_id"
}

// FillSlot seats a participant only if the slot is empty and the participant
// is not already in the match. It reports whether the write landed.
func (s *TournamentStore) FillSlot(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, slot bracket.Slot, participantID uuid.UUID) (bool, error) {
	column := slotColumn(slot)
	query := fmt.Sprintf(`UPDATE matches SET %[1]s = ? WHERE id = ? AND %[1]s IS NULL
		AND (player1_id IS NULL OR player1_id <> ?) AND (player2_id IS NULL OR player2_id <> ?)`, column)
	result, err := tx.ExecContext(ctx, tx.Rebind(query), participantID, matchID, participantID, participantID)
	if err != nil {
		return false, err
	}
	return applied(result)
}

// CompleteBye marks a pending bye match won by its single entrant.
func (s *TournamentStore) CompleteBye(ctx context.Context, tx *sqlx.Tx, matchID, winnerID uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE matches SET status = ?, winner_id = ?
		WHERE id = ? AND is_bye = ? AND status = ?`),
		bracket.MatchCompleted, winnerID, matchID, true, bracket.MatchPending)
	if err != nil {
		return false, err
	}
	return applied(result)
}

// PopulateReset seats both grand finalists in an empty reset match at 0-0.
func (s *TournamentStore) PopulateReset(ctx context.Context, tx *sqlx.Tx, matchID, player1ID, player2ID uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE matches SET player1_id = ?, player2_id = ?, score_p1 = 0, score_p2 = 0, status = ?
		WHERE id = ? AND player1_id IS NULL AND player2_id IS NULL`),
		player1ID, player2ID, bracket.MatchPending, matchID)
	if err != nil {
		return false, err
	}
	return applied(result)
}

// RecordDeclaration mirrors a side's latest claim onto the match, oriented to
// player1/player2.
func (s *TournamentStore) RecordDeclaration(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, slot bracket.Slot, own, opponent int) error {
	p1, p2, flag := own, opponent, "reported_by_team1"
	if slot == bracket.Player2 {
		p1, p2, flag = opponent, own, "reported_by_team2"
	}
	query := fmt.Sprintf("UPDATE matches SET score_p1_reported = ?, score_p2_reported = ?, %s = ? WHERE id = ?", flag)
	result, err := tx.ExecContext(ctx, tx.Rebind(query), p1, p2, true, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (s *TournamentStore) SetScoreStatus(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, status bracket.ScoreStatus) error {
	result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE matches SET score_status = ? WHERE id = ?"), status, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// FinalizeMatch confirms the score of a match that is not completed yet. It
// reports false when the match was already completed.
func (s *TournamentStore) FinalizeMatch(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, score1, score2 int, winnerID *uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE matches SET score_p1 = ?, score_p2 = ?, winner_id = ?, status = ?, score_status = ?,
		reported_by_team1 = ?, reported_by_team2 = ?
		WHERE id = ? AND status <> ?`),
		score1, score2, winnerID, bracket.MatchCompleted, bracket.ScoreConfirmed, true, true, matchID, bracket.MatchCompleted)
	if err != nil {
		return false, err
	}
	return applied(result)
}
