// Package topology builds the initial match records for every tournament format.
package topology

import (
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

var (
	ErrNotEnoughParticipants = errors.New("at least two participants are required")
	ErrUnsupportedFormat     = errors.New("unsupported tournament format")
)

// Result is the batch of matches to persist. Byes lists participants left
// unpaired by the first Swiss round.
type Result struct {
	Matches []bracket.Match
	Byes    []uuid.UUID
}

// Generate produces the full set of initial matches. Participants must
// already be in seeded (or shuffled) order.
func Generate(tournamentID uuid.UUID, format bracket.Format, participants []bracket.Participant) (Result, error) {
	if len(participants) < 2 {
		return Result{}, ErrNotEnoughParticipants
	}

	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	switch format {
	case bracket.SingleElimination:
		return Result{Matches: flatten(buildWinnersLadder(tournamentID, ids, nil))}, nil
	case bracket.DoubleElimination:
		return Result{Matches: generateDoubleElim(tournamentID, ids)}, nil
	case bracket.RoundRobin:
		return Result{Matches: generateRoundRobin(tournamentID, ids)}, nil
	case bracket.Swiss:
		pairs, byes := pairConsecutive(ids)
		return Result{Matches: SwissRound(tournamentID, 1, pairs), Byes: byes}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// RoundCount is ceil(log2(n)), the number of rounds of an elimination ladder.
func RoundCount(n int) int {
	rounds := 0
	for e := n; e > 1; e = (e + 1) / 2 {
		rounds++
	}
	return rounds
}

// LosersRoundCount is the number of losers-bracket rounds for n participants.
func LosersRoundCount(n int) int {
	w := RoundCount(n)
	if w < 2 {
		return 0
	}
	return 2*w - 2
}

func newMatch(tournamentID uuid.UUID, round, number int, segment *bracket.Segment) *bracket.Match {
	return &bracket.Match{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		RoundNumber:  round,
		MatchNumber:  number,
		Segment:      segment,
		Status:       bracket.MatchPending,
		ScoreStatus:  bracket.ScorePending,
		CreatedAt:    time.Now().UTC(),
	}
}

func flatten(rounds [][]*bracket.Match) []bracket.Match {
	var matches []bracket.Match
	for _, round := range rounds {
		for _, m := range round {
			matches = append(matches, *m)
		}
	}
	return matches
}

// pairConsecutive pairs 1v2, 3v4, ... and returns the odd participant out, if any.
func pairConsecutive(ids []uuid.UUID) ([][2]uuid.UUID, []uuid.UUID) {
	pairs := make([][2]uuid.UUID, 0, len(ids)/2)
	for i := 0; i+1 < len(ids); i += 2 {
		pairs = append(pairs, [2]uuid.UUID{ids[i], ids[i+1]})
	}
	if len(ids)%2 == 1 {
		return pairs, []uuid.UUID{ids[len(ids)-1]}
	}
	return pairs, nil
}
