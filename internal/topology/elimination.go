package topology

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

// buildWinnersLadder lays out an elimination ladder with consecutive pairing.
// A round with an odd number of entrants ends in a bye match. Byes whose
// lone entrant is already known are completed here and their entrant is
// seated in the next round.
func buildWinnersLadder(tournamentID uuid.UUID, ids []uuid.UUID, segment *bracket.Segment) [][]*bracket.Match {
	var rounds [][]*bracket.Match

	entrants := len(ids)
	for r := 1; entrants > 1; r++ {
		count := (entrants + 1) / 2
		round := make([]*bracket.Match, count)
		for i := range round {
			round[i] = newMatch(tournamentID, r, i+1, segment)
		}
		if entrants%2 == 1 {
			round[count-1].IsBye = true
		}
		rounds = append(rounds, round)
		entrants = count
	}

	if len(rounds) == 0 {
		return rounds
	}

	for i, m := range rounds[0] {
		p1 := ids[2*i]
		m.Player1ID = &p1
		if 2*i+1 < len(ids) {
			p2 := ids[2*i+1]
			m.Player2ID = &p2
		}
	}

	// Only the last match of a round can be a bye, so at most one known
	// entrant cascades per round.
	for r, round := range rounds {
		last := round[len(round)-1]
		if !last.IsBye || last.Player1ID == nil {
			continue
		}
		last.Status = bracket.MatchCompleted
		last.WinnerID = last.Player1ID
		if r+1 >= len(rounds) {
			continue
		}
		position := len(round) - 1
		next := rounds[r+1][position/2]
		if position%2 == 0 {
			next.Player1ID = last.Player1ID
		} else {
			next.Player2ID = last.Player1ID
		}
	}

	return rounds
}

// contestedCount is the number of matches in a round that can produce a loser.
func contestedCount(round []*bracket.Match) int {
	n := 0
	for _, m := range round {
		if !m.IsBye {
			n++
		}
	}
	return n
}

// generateDoubleElim builds the winners ladder, a losers ladder of 2W-2 rounds
// and the grand final plus its reset match.
//
// Losers are seated first-empty-slot, so the k-th arrival of a losers round
// always lands in match k/2. That makes the number of arrivals per round, and
// therefore its byes, fully determined by the winners ladder.
func generateDoubleElim(tournamentID uuid.UUID, ids []uuid.UUID) []bracket.Match {
	winners := buildWinnersLadder(tournamentID, ids, bracket.SegmentPtr(bracket.WinnersSegment))
	matches := flatten(winners)

	w := len(winners)
	var previous int
	for r := 1; r <= 2*w-2; r++ {
		var arrivals int
		switch {
		case r == 1:
			arrivals = contestedCount(winners[0])
		case r%2 == 0:
			arrivals = previous + contestedCount(winners[r/2])
		default:
			arrivals = previous
		}

		count := (arrivals + 1) / 2
		for i := 0; i < count; i++ {
			m := newMatch(tournamentID, r, i+1, bracket.SegmentPtr(bracket.LosersSegment))
			if arrivals%2 == 1 && i == count-1 {
				m.IsBye = true
			}
			matches = append(matches, *m)
		}
		previous = count
	}

	final := newMatch(tournamentID, 1, 1, bracket.SegmentPtr(bracket.GrandFinalSegment))
	reset := newMatch(tournamentID, 2, 1, bracket.SegmentPtr(bracket.GrandFinalSegment))
	reset.IsReset = true

	return append(matches, *final, *reset)
}
