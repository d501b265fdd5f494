package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/AdamBeresnev/bracket-engine/internal/swiss"
	"github.com/AdamBeresnev/bracket-engine/internal/topology"
	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	db   *sqlx.DB
	bus  *notify.Bus
	opts Options
	finalizer
}

func NewTournamentService(db *sqlx.DB, tournaments *store.TournamentStore, swissStore *store.SwissStore, bus *notify.Bus, opts Options) *TournamentService {
	return &TournamentService{
		db:        db,
		bus:       bus,
		opts:      opts,
		finalizer: finalizer{tournaments: tournaments, swiss: swissStore},
	}
}

type ParticipantInput struct {
	TeamID uuid.UUID `json:"team_id"`
	Name   string    `json:"name"`
	Seed   *int      `json:"seed"`
}

type TournamentInput struct {
	Name         string             `json:"name"`
	Format       bracket.Format     `json:"format"`
	BestOf       int                `json:"best_of"`
	SwissRounds  *int               `json:"swiss_rounds"`
	MapPool      []string           `json:"maps_pool"`
	Participants []ParticipantInput `json:"participants"`
}

// CreateTournament stores a draft tournament and its participants. Unseeded
// participants are seeded in input order.
func (s *TournamentService) CreateTournament(ctx context.Context, input TournamentInput) (*bracket.Tournament, error) {
	if !input.Format.Valid() {
		return nil, reject(ErrInvalidFormat)
	}
	if input.BestOf == 0 {
		input.BestOf = 1
	}
	if input.BestOf < 1 || input.BestOf%2 == 0 {
		return nil, reject(ErrInvalidBestOf)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament := &bracket.Tournament{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Format:      input.Format,
		BestOf:      input.BestOf,
		Status:      bracket.TournamentDraft,
		MapPool:     input.MapPool,
		SwissRounds: input.SwissRounds,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.tournaments.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("create tournament: %w", err)
	}

	participants := make([]bracket.Participant, 0, len(input.Participants))
	for i, in := range input.Participants {
		teamID := in.TeamID
		if teamID == uuid.Nil {
			teamID = uuid.New()
		}
		seed := in.Seed
		if seed == nil {
			seed = utils.Ptr(i + 1)
		}
		participants = append(participants, bracket.Participant{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			TeamID:       teamID,
			Name:         strings.TrimSpace(in.Name),
			Seed:         seed,
		})
	}
	if err := s.tournaments.CreateParticipants(ctx, tx, participants); err != nil {
		return nil, fmt.Errorf("create participants: %w", err)
	}

	return tournament, tx.Commit()
}

// GenerateTopology creates the initial matches of a draft tournament and
// moves it to ongoing. An empty participantIDs uses every participant that
// is not disqualified, in seed order. An empty format uses the tournament's.
func (s *TournamentService) GenerateTopology(ctx context.Context, tournamentID uuid.UUID, format bracket.Format, participantIDs []uuid.UUID) ([]bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := s.tournaments.LockTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, lookupErr("tournament", err)
	}
	if t.Status != bracket.TournamentDraft {
		return nil, reject(ErrAlreadyGenerated)
	}
	if format != "" && format != t.Format {
		return nil, reject(ErrInvalidFormat)
	}

	all, err := s.tournaments.GetParticipants(ctx, tx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	participants, err := selectParticipants(all, participantIDs)
	if err != nil {
		return nil, err
	}

	res, err := topology.Generate(t.ID, t.Format, participants)
	switch {
	case errors.Is(err, topology.ErrNotEnoughParticipants):
		return nil, reject(ErrNotEnoughParticipants)
	case errors.Is(err, topology.ErrUnsupportedFormat):
		return nil, reject(ErrInvalidFormat)
	case err != nil:
		return nil, err
	}

	if err := s.tournaments.CreateMatches(ctx, tx, res.Matches); err != nil {
		return nil, fmt.Errorf("create matches: %w", err)
	}
	if t.Format == bracket.Swiss {
		if err := s.openSwissLedger(ctx, tx, t, participants, res.Byes); err != nil {
			return nil, err
		}
	}
	if err := s.tournaments.UpdateStatus(ctx, tx, t.ID, bracket.TournamentOngoing); err != nil {
		return nil, err
	}

	var fx effects
	emitUpcoming(&fx, nil, res.Matches)
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	fx.flush(s.bus)
	return res.Matches, nil
}

func selectParticipants(all []bracket.Participant, ids []uuid.UUID) ([]bracket.Participant, error) {
	var selected []bracket.Participant
	if len(ids) == 0 {
		for _, p := range all {
			if !p.Disqualified {
				selected = append(selected, p)
			}
		}
	} else {
		byID := make(map[uuid.UUID]bracket.Participant, len(all))
		for _, p := range all {
			byID[p.ID] = p
		}
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			p, ok := byID[id]
			if !ok {
				return nil, reject(ErrUnknownParticipant)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			selected = append(selected, p)
		}
	}
	if len(selected) < 2 {
		return nil, reject(ErrNotEnoughParticipants)
	}
	return selected, nil
}

func (s *TournamentService) openSwissLedger(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament, participants []bracket.Participant, byes []uuid.UUID) error {
	scores := make([]bracket.SwissScore, len(participants))
	for i, p := range participants {
		scores[i] = bracket.SwissScore{TournamentID: t.ID, TeamID: p.ID}
	}
	if s.opts.AwardByeWin {
		for _, teamID := range byes {
			swiss.AwardBye(scores, teamID)
		}
	}
	if err := s.swiss.CreateScores(ctx, tx, scores); err != nil {
		return fmt.Errorf("create swiss scores: %w", err)
	}
	return s.tournaments.SetCurrentRound(ctx, tx, t.ID, 1)
}

// Snapshot is the read model of a whole tournament.
type Snapshot struct {
	Tournament   *bracket.Tournament   `json:"tournament"`
	Participants []bracket.Participant `json:"participants"`
	Bracket      BracketData           `json:"bracket"`
	Standings    []Standing            `json:"standings"`
}

// GetTournamentSnapshot loads a tournament with its participants, matches and
// standings.
func (s *TournamentService) GetTournamentSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var (
		tournament   *bracket.Tournament
		participants []bracket.Participant
		matches      []bracket.Match
		ledger       []bracket.SwissScore
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournaments.GetTournament(gCtx, s.db, id)
		if err != nil {
			return lookupErr("tournament", err)
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		var err error
		participants, err = s.tournaments.GetParticipants(gCtx, s.db, id)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.tournaments.GetMatches(gCtx, s.db, id)
		if err != nil {
			return fmt.Errorf("failed to get matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ledger, err = s.swiss.GetScores(gCtx, s.db, id)
		if err != nil {
			return fmt.Errorf("failed to get swiss scores: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Snapshot{
		Tournament:   tournament,
		Participants: participants,
		Bracket:      PrepareBracketData(matches),
		Standings:    computeStandings(tournament, participants, matches, ledger),
	}, nil
}

func (s *TournamentService) Standings(ctx context.Context, id uuid.UUID) ([]Standing, error) {
	snapshot, err := s.GetTournamentSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot.Standings, nil
}
