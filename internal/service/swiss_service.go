package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/AdamBeresnev/bracket-engine/internal/swiss"
	"github.com/AdamBeresnev/bracket-engine/internal/topology"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SwissService struct {
	db   *sqlx.DB
	bus  *notify.Bus
	opts Options
	finalizer
}

func NewSwissService(db *sqlx.DB, tournaments *store.TournamentStore, swissStore *store.SwissStore, bus *notify.Bus, opts Options) *SwissService {
	return &SwissService{
		db:        db,
		bus:       bus,
		opts:      opts,
		finalizer: finalizer{tournaments: tournaments, swiss: swissStore},
	}
}

// AdvanceSwissRound pairs and creates the next Swiss round once the current
// one has closed. After the final round it completes the tournament and
// returns an empty pairing.
func (s *SwissService) AdvanceSwissRound(ctx context.Context, tournamentID uuid.UUID) (swiss.Pairing, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return swiss.Pairing{}, err
	}
	defer tx.Rollback()

	t, err := s.tournaments.LockTournament(ctx, tx, tournamentID)
	if err != nil {
		return swiss.Pairing{}, lookupErr("tournament", err)
	}
	switch {
	case t.Format != bracket.Swiss:
		return swiss.Pairing{}, reject(ErrNotSwiss)
	case t.Status == bracket.TournamentCompleted:
		return swiss.Pairing{}, nil
	case t.Status == bracket.TournamentDraft:
		return swiss.Pairing{}, reject(ErrNotStarted)
	}

	matches, err := s.tournaments.GetMatches(ctx, tx, t.ID)
	if err != nil {
		return swiss.Pairing{}, fmt.Errorf("load matches: %w", err)
	}
	if !roundClosed(matches, t.CurrentRound) {
		return swiss.Pairing{}, reject(ErrRoundNotClosed)
	}
	scores, err := s.swiss.GetScores(ctx, tx, t.ID)
	if err != nil {
		return swiss.Pairing{}, fmt.Errorf("load swiss scores: %w", err)
	}

	var fx effects
	if t.CurrentRound >= swiss.Rounds(len(scores), t.SwissRounds) {
		return swiss.Pairing{}, s.finish(ctx, tx, t.ID, &fx)
	}

	participants, err := s.tournaments.GetParticipants(ctx, tx, t.ID)
	if err != nil {
		return swiss.Pairing{}, fmt.Errorf("load participants: %w", err)
	}
	disqualified := make(map[uuid.UUID]bool)
	for _, p := range participants {
		if p.Disqualified {
			disqualified[p.ID] = true
		}
	}
	var active []bracket.SwissScore
	for _, score := range swiss.Rank(scores) {
		if !disqualified[score.TeamID] {
			active = append(active, score)
		}
	}

	pairing := swiss.Pair(active, swiss.NewHistory(matches))
	if len(pairing.Pairs) == 0 {
		return swiss.Pairing{}, s.finish(ctx, tx, t.ID, &fx)
	}

	next := t.CurrentRound + 1
	round := topology.SwissRound(t.ID, next, pairing.Pairs)
	if err := s.tournaments.CreateMatches(ctx, tx, round); err != nil {
		return swiss.Pairing{}, fmt.Errorf("create round %d: %w", next, err)
	}
	if err := s.tournaments.SetCurrentRound(ctx, tx, t.ID, next); err != nil {
		return swiss.Pairing{}, err
	}
	if s.opts.AwardByeWin && len(pairing.Byes) > 0 {
		for _, teamID := range pairing.Byes {
			swiss.AwardBye(scores, teamID)
		}
		swiss.Recompute(scores, matches)
		if err := s.swiss.SaveScores(ctx, tx, scores); err != nil {
			return swiss.Pairing{}, fmt.Errorf("save swiss scores: %w", err)
		}
	}
	emitUpcoming(&fx, nil, round)

	if err := tx.Commit(); err != nil {
		return swiss.Pairing{}, err
	}
	fx.flush(s.bus)
	return pairing, nil
}

func (s *SwissService) finish(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, fx *effects) error {
	if err := s.completeTournament(ctx, tx, tournamentID, fx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	fx.flush(s.bus)
	return nil
}
