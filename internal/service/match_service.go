package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/reconcile"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db    *sqlx.DB
	swiss *SwissService
	bus   *notify.Bus
	opts  Options
	finalizer
}

func NewMatchService(db *sqlx.DB, tournaments *store.TournamentStore, scores *store.ScoreStore, swissStore *store.SwissStore, swiss *SwissService, bus *notify.Bus, opts Options) *MatchService {
	return &MatchService{
		db:        db,
		swiss:     swiss,
		bus:       bus,
		opts:      opts,
		finalizer: finalizer{tournaments: tournaments, scores: scores, swiss: swissStore},
	}
}

// MatchData is a match together with its games and declaration log.
type MatchData struct {
	Match   *bracket.Match        `json:"match"`
	Games   []bracket.MatchGame   `json:"games"`
	Reports []bracket.ScoreReport `json:"reports"`
}

func (s *MatchService) GetMatchData(ctx context.Context, matchID uuid.UUID) (*MatchData, error) {
	m, err := s.tournaments.GetMatch(ctx, s.db, matchID)
	if err != nil {
		return nil, lookupErr("match", err)
	}
	games, err := s.scores.GetGames(ctx, s.db, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}
	reports, err := s.scores.ReportsForMatch(ctx, s.db, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}
	return &MatchData{Match: m, Games: games, Reports: reports}, nil
}

// TournamentOf returns the tournament a match belongs to.
func (s *MatchService) TournamentOf(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	m, err := s.tournaments.GetMatch(ctx, s.db, matchID)
	if err != nil {
		return uuid.Nil, lookupErr("match", err)
	}
	return m.TournamentID, nil
}

// TournamentOfGame returns the tournament a game belongs to.
func (s *MatchService) TournamentOfGame(ctx context.Context, gameID uuid.UUID) (uuid.UUID, error) {
	g, err := s.scores.GetGame(ctx, s.db, gameID)
	if err != nil {
		return uuid.Nil, lookupErr("game", err)
	}
	return s.TournamentOf(ctx, g.MatchID)
}

// checkDeclarable rejects declarations the match can't take.
func checkDeclarable(m *bracket.Match, teamID uuid.UUID) (bracket.Slot, error) {
	switch {
	case m.IsCompleted() || m.Status == bracket.MatchCancelled:
		return 0, reject(ErrMatchCompleted)
	case !m.HasBothPlayers():
		return 0, reject(ErrMatchNotReady)
	}
	slot, ok := m.SlotOf(teamID)
	if !ok {
		return 0, reject(ErrTeamNotInMatch)
	}
	return slot, nil
}

// DeclareScore records one side's claim about a match result and reconciles
// it against the other side's latest claim. A series that already has game
// rows must be finished game by game.
func (s *MatchService) DeclareScore(ctx context.Context, matchID, teamID uuid.UUID, myScore, opponentScore int, reporterID string) (reconcile.Outcome, error) {
	if myScore < 0 || opponentScore < 0 {
		return reconcile.Outcome{}, reject(ErrNegativeScore)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	defer tx.Rollback()

	t, m, err := s.lockMatch(ctx, tx, matchID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	slot, err := checkDeclarable(m, teamID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	if m.ScoreStatus == bracket.ScoreDisputed {
		return reconcile.Outcome{}, reject(ErrMatchDisputed)
	}
	if myScore == opponentScore && t.Format.IsElimination() {
		return reconcile.Outcome{}, reject(ErrDrawNotAllowed)
	}
	if t.BestOf > 1 {
		games, err := s.scores.GetGames(ctx, tx, m.ID)
		if err != nil {
			return reconcile.Outcome{}, fmt.Errorf("load games: %w", err)
		}
		if len(games) > 0 {
			return reconcile.Outcome{}, reject(ErrSeriesInProgress)
		}
	}

	// A newer claim from the same side supersedes the unresolved one.
	if _, err := s.scores.ResolveReports(ctx, tx, m.ID, &teamID); err != nil {
		return reconcile.Outcome{}, fmt.Errorf("supersede report: %w", err)
	}
	report := &bracket.ScoreReport{
		ID:            uuid.New(),
		MatchID:       m.ID,
		TeamID:        teamID,
		ScoreTeam:     myScore,
		ScoreOpponent: opponentScore,
		ReportedBy:    reporterID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.scores.InsertReport(ctx, tx, report); err != nil {
		return reconcile.Outcome{}, fmt.Errorf("insert report: %w", err)
	}
	if err := s.tournaments.RecordDeclaration(ctx, tx, m.ID, slot, myScore, opponentScore); err != nil {
		return reconcile.Outcome{}, fmt.Errorf("record declaration: %w", err)
	}

	reports, err := s.scores.UnresolvedReports(ctx, tx, m.ID)
	if err != nil {
		return reconcile.Outcome{}, fmt.Errorf("load reports: %w", err)
	}
	agreement, err := reconcile.FromReports(*m.Player1ID, *m.Player2ID, reports)
	if err != nil {
		return reconcile.Outcome{}, err
	}

	var fx effects
	outcome := agreement.Evaluate()
	switch outcome.State {
	case reconcile.StateDisputed:
		if err := s.tournaments.SetScoreStatus(ctx, tx, m.ID, bracket.ScoreDisputed); err != nil {
			return reconcile.Outcome{}, err
		}
		emit(&fx, notify.ScoreDisputed{TournamentID: t.ID, MatchID: m.ID})
	case reconcile.StateConfirmed:
		if err := s.finalizeMatch(ctx, tx, t, m, outcome, false, &fx); err != nil {
			return reconcile.Outcome{}, err
		}
	}
	emit(&fx, notify.ScoreDeclared{TournamentID: t.ID, MatchID: m.ID, TeamID: teamID, Outcome: string(outcome.State)})

	if err := tx.Commit(); err != nil {
		return reconcile.Outcome{}, err
	}
	s.afterCommit(ctx, t.ID, &fx)
	return outcome, nil
}

// DeclareGameScore records a claim about one game of a best-of series.
func (s *MatchService) DeclareGameScore(ctx context.Context, matchID uuid.UUID, gameNumber int, teamID uuid.UUID, myScore, opponentScore int, reporterID string) (reconcile.Outcome, error) {
	if myScore < 0 || opponentScore < 0 {
		return reconcile.Outcome{}, reject(ErrNegativeScore)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	defer tx.Rollback()

	t, m, err := s.lockMatch(ctx, tx, matchID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	if t.BestOf <= 1 {
		return reconcile.Outcome{}, reject(ErrNotSeries)
	}
	if gameNumber < 1 || gameNumber > t.BestOf {
		return reconcile.Outcome{}, reject(ErrInvalidGameNumber)
	}
	slot, err := checkDeclarable(m, teamID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	if myScore == opponentScore && t.Format.IsElimination() {
		return reconcile.Outcome{}, reject(ErrDrawNotAllowed)
	}

	game, err := s.scores.GetOrCreateGame(ctx, tx, m.ID, gameNumber)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	switch {
	case game.IsCompleted():
		return reconcile.Outcome{}, reject(ErrGameCompleted)
	case game.ScoreStatus == bracket.ScoreDisputed:
		return reconcile.Outcome{}, reject(ErrGameDisputed)
	}

	if _, err := s.scores.ResolveGameReports(ctx, tx, game.ID, &teamID); err != nil {
		return reconcile.Outcome{}, fmt.Errorf("supersede game report: %w", err)
	}
	report := &bracket.GameScoreReport{
		ID:            uuid.New(),
		GameID:        game.ID,
		TeamID:        teamID,
		ScoreTeam:     myScore,
		ScoreOpponent: opponentScore,
		ReportedBy:    reporterID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.scores.InsertGameReport(ctx, tx, report); err != nil {
		return reconcile.Outcome{}, fmt.Errorf("insert game report: %w", err)
	}
	if err := s.scores.RecordGameDeclaration(ctx, tx, game.ID, slot, myScore, opponentScore); err != nil {
		return reconcile.Outcome{}, fmt.Errorf("record game declaration: %w", err)
	}

	reports, err := s.scores.UnresolvedGameReports(ctx, tx, game.ID)
	if err != nil {
		return reconcile.Outcome{}, fmt.Errorf("load game reports: %w", err)
	}
	agreement, err := reconcile.FromGameReports(*m.Player1ID, *m.Player2ID, reports)
	if err != nil {
		return reconcile.Outcome{}, err
	}

	var fx effects
	gameID := game.ID
	outcome := agreement.Evaluate()
	switch outcome.State {
	case reconcile.StateDisputed:
		if err := s.scores.SetGameScoreStatus(ctx, tx, game.ID, bracket.ScoreDisputed); err != nil {
			return reconcile.Outcome{}, err
		}
		emit(&fx, notify.ScoreDisputed{TournamentID: t.ID, MatchID: m.ID, GameID: &gameID})
	case reconcile.StateConfirmed:
		if err := s.finalizeGame(ctx, tx, t, m, game, outcome, false, &fx); err != nil {
			return reconcile.Outcome{}, err
		}
	}
	emit(&fx, notify.ScoreDeclared{TournamentID: t.ID, MatchID: m.ID, GameID: &gameID, TeamID: teamID, Outcome: string(outcome.State)})

	if err := tx.Commit(); err != nil {
		return reconcile.Outcome{}, err
	}
	s.afterCommit(ctx, t.ID, &fx)
	return outcome, nil
}

// ResolveDispute finalizes a match with an authoritative score, whatever the
// declarations say.
func (s *MatchService) ResolveDispute(ctx context.Context, matchID uuid.UUID, score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return reject(ErrNegativeScore)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	t, m, err := s.lockMatch(ctx, tx, matchID)
	if err != nil {
		return err
	}
	switch {
	case m.IsCompleted() || m.Status == bracket.MatchCancelled:
		return reject(ErrMatchCompleted)
	case !m.HasBothPlayers():
		return reject(ErrMatchNotReady)
	case score1 == score2 && t.Format.IsElimination():
		return reject(ErrDrawNotAllowed)
	}

	var fx effects
	outcome := reconcile.Decide(*m.Player1ID, *m.Player2ID, score1, score2)
	if err := s.finalizeMatch(ctx, tx, t, m, outcome, true, &fx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.afterCommit(ctx, t.ID, &fx)
	return nil
}

// ResolveGameDispute finalizes one game with an authoritative score and
// re-runs the series check.
func (s *MatchService) ResolveGameDispute(ctx context.Context, gameID uuid.UUID, score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return reject(ErrNegativeScore)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	game, err := s.scores.GetGame(ctx, tx, gameID)
	if err != nil {
		return lookupErr("game", err)
	}
	t, m, err := s.lockMatch(ctx, tx, game.MatchID)
	if err != nil {
		return err
	}
	if game, err = s.scores.GetGame(ctx, tx, gameID); err != nil {
		return lookupErr("game", err)
	}
	switch {
	case game.IsCompleted():
		return reject(ErrGameCompleted)
	case m.IsCompleted():
		return reject(ErrMatchCompleted)
	case !m.HasBothPlayers():
		return reject(ErrMatchNotReady)
	case score1 == score2 && t.Format.IsElimination():
		return reject(ErrDrawNotAllowed)
	}

	var fx effects
	outcome := reconcile.Decide(*m.Player1ID, *m.Player2ID, score1, score2)
	if err := s.finalizeGame(ctx, tx, t, m, game, outcome, true, &fx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.afterCommit(ctx, t.ID, &fx)
	return nil
}

// afterCommit publishes the collected events and, when enabled, pairs the
// next Swiss round in its own transaction.
func (s *MatchService) afterCommit(ctx context.Context, tournamentID uuid.UUID, fx *effects) {
	fx.flush(s.bus)
	if !fx.roundClosed || fx.completed || !s.opts.AutoAdvance || s.swiss == nil {
		return
	}
	if _, err := s.swiss.AdvanceSwissRound(ctx, tournamentID); err != nil {
		slog.Error("automatic swiss advance failed", "tournament_id", tournamentID, "error", err)
	}
}
