package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/progression"
	"github.com/AdamBeresnev/bracket-engine/internal/reconcile"
	"github.com/AdamBeresnev/bracket-engine/internal/series"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/AdamBeresnev/bracket-engine/internal/swiss"
	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Options toggles the configurable Swiss behaviour.
type Options struct {
	AwardByeWin bool
	AutoAdvance bool
}

// finalizer runs the finalize-and-progress sequence shared by declarations,
// admin overrides and Swiss advancement. Every method works inside the
// caller's transaction.
type finalizer struct {
	tournaments *store.TournamentStore
	scores      *store.ScoreStore
	swiss       *store.SwissStore
}

// lockMatch loads a match and takes the per-tournament lock. The match is
// re-read after the lock so checks see the latest committed state.
func (f *finalizer) lockMatch(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (*bracket.Tournament, *bracket.Match, error) {
	m, err := f.tournaments.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, nil, lookupErr("match", err)
	}
	t, err := f.tournaments.LockTournament(ctx, tx, m.TournamentID)
	if err != nil {
		return nil, nil, lookupErr("tournament", err)
	}
	m, err = f.tournaments.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, nil, lookupErr("match", err)
	}
	return t, m, nil
}

// finalizeMatch writes the confirmed result, resolves the declaration log and
// routes the outcome.
func (f *finalizer) finalizeMatch(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament, m *bracket.Match, out reconcile.Outcome, override bool, fx *effects) error {
	ok, err := f.tournaments.FinalizeMatch(ctx, tx, m.ID, out.Score1, out.Score2, out.Winner)
	if err != nil {
		return fmt.Errorf("finalize match: %w", err)
	}
	if !ok {
		return reject(ErrMatchCompleted)
	}
	if _, err := f.scores.ResolveReports(ctx, tx, m.ID, nil); err != nil {
		return fmt.Errorf("resolve reports: %w", err)
	}

	completed := *m
	completed.ScoreP1 = utils.Ptr(out.Score1)
	completed.ScoreP2 = utils.Ptr(out.Score2)
	completed.WinnerID = out.Winner
	completed.Status = bracket.MatchCompleted
	completed.ScoreStatus = bracket.ScoreConfirmed

	matches, err := f.tournaments.GetMatches(ctx, tx, t.ID)
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	matches = replaceMatch(matches, completed)

	if t.Format == bracket.Swiss {
		err = f.recordSwiss(ctx, tx, t, completed, matches, fx)
	} else {
		err = f.progress(ctx, tx, t, completed, matches, fx)
	}
	if err != nil {
		return err
	}

	emit(fx, notify.MatchResult{
		TournamentID: t.ID,
		MatchID:      m.ID,
		WinnerID:     out.Winner,
		ScoreP1:      out.Score1,
		ScoreP2:      out.Score2,
		Override:     override,
	})
	return nil
}

// finalizeGame confirms one game of a series, then finalizes the match once
// the series is decided.
func (f *finalizer) finalizeGame(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament, m *bracket.Match, game *bracket.MatchGame, out reconcile.Outcome, override bool, fx *effects) error {
	ok, err := f.scores.FinalizeGame(ctx, tx, game.ID, out.Score1, out.Score2, out.Winner)
	if err != nil {
		return fmt.Errorf("finalize game: %w", err)
	}
	if !ok {
		return reject(ErrGameCompleted)
	}
	if _, err := f.scores.ResolveGameReports(ctx, tx, game.ID, nil); err != nil {
		return fmt.Errorf("resolve game reports: %w", err)
	}

	games, err := f.scores.GetGames(ctx, tx, m.ID)
	if err != nil {
		return fmt.Errorf("load games: %w", err)
	}
	result := series.CalculateMatchWinner(games, t.BestOf, *m.Player1ID, *m.Player2ID)
	if !result.IsCompleted {
		return nil
	}
	aggregate := reconcile.Outcome{
		State:  reconcile.StateConfirmed,
		Score1: result.Team1Wins,
		Score2: result.Team2Wins,
		Winner: result.Winner,
	}
	return f.finalizeMatch(ctx, tx, t, m, aggregate, override, fx)
}

func (f *finalizer) progress(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament, completed bracket.Match, matches []bracket.Match, fx *effects) error {
	plan := progression.Route(t, completed, matches)
	if err := f.applyPlan(ctx, tx, t, plan, fx); err != nil {
		return err
	}
	emitUpcoming(fx, matches, plan.Apply(matches))
	return nil
}

// applyPlan performs the plan's conditional writes. A write that finds its
// slot taken is skipped.
func (f *finalizer) applyPlan(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament, plan progression.Plan, fx *effects) error {
	for _, w := range plan.Writes {
		if _, err := f.tournaments.FillSlot(ctx, tx, w.MatchID, w.Slot, w.ParticipantID); err != nil {
			return fmt.Errorf("fill %s of match %s: %w", w.Slot, w.MatchID, err)
		}
	}
	for _, b := range plan.ByeWins {
		if _, err := f.tournaments.CompleteBye(ctx, tx, b.MatchID, b.WinnerID); err != nil {
			return fmt.Errorf("complete bye %s: %w", b.MatchID, err)
		}
	}
	if r := plan.Reset; r != nil {
		if _, err := f.tournaments.PopulateReset(ctx, tx, r.MatchID, r.Player1ID, r.Player2ID); err != nil {
			return fmt.Errorf("populate reset %s: %w", r.MatchID, err)
		}
	}
	for _, w := range plan.Warnings {
		slog.Warn("bracket integrity problem", "tournament_id", w.TournamentID, "match_id", w.MatchID, "reason", w.Reason)
		emit(fx, notify.IntegrityWarning{TournamentID: w.TournamentID, MatchID: w.MatchID, Reason: w.Reason})
	}
	if plan.CompleteTournament {
		return f.completeTournament(ctx, tx, t.ID, fx)
	}
	return nil
}

// recordSwiss updates the standings ledger and closes the round when its
// last match completes.
func (f *finalizer) recordSwiss(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament, completed bracket.Match, matches []bracket.Match, fx *effects) error {
	scores, err := f.swiss.GetScores(ctx, tx, t.ID)
	if err != nil {
		return fmt.Errorf("load swiss scores: %w", err)
	}
	swiss.RecordResult(scores, completed)
	swiss.Recompute(scores, matches)
	if err := f.swiss.SaveScores(ctx, tx, scores); err != nil {
		return fmt.Errorf("save swiss scores: %w", err)
	}

	if !roundClosed(matches, completed.RoundNumber) {
		return nil
	}
	fx.roundClosed = true
	emit(fx, notify.RoundClosed{TournamentID: t.ID, Round: completed.RoundNumber})
	if completed.RoundNumber >= swiss.Rounds(len(scores), t.SwissRounds) {
		return f.completeTournament(ctx, tx, t.ID, fx)
	}
	return nil
}

func (f *finalizer) completeTournament(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, fx *effects) error {
	if err := f.tournaments.UpdateStatus(ctx, tx, tournamentID, bracket.TournamentCompleted); err != nil {
		return fmt.Errorf("complete tournament: %w", err)
	}
	fx.completed = true
	emit(fx, notify.TournamentCompleted{TournamentID: tournamentID})
	return nil
}

func roundClosed(matches []bracket.Match, round int) bool {
	for _, m := range matches {
		if m.RoundNumber == round && !m.IsCompleted() {
			return false
		}
	}
	return true
}

func replaceMatch(matches []bracket.Match, m bracket.Match) []bracket.Match {
	for i := range matches {
		if matches[i].ID == m.ID {
			matches[i] = m
			break
		}
	}
	return matches
}

// lookupErr maps the store's not-found sentinels to ErrNotFound.
func lookupErr(what string, err error) error {
	if errors.Is(err, store.ErrTournamentNotFound) || errors.Is(err, store.ErrMatchNotFound) || errors.Is(err, store.ErrGameNotFound) {
		return notFound(what, err)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
