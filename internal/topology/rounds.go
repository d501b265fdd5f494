package topology

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

func generateRoundRobin(tournamentID uuid.UUID, ids []uuid.UUID) []bracket.Match {
	matches := make([]bracket.Match, 0, len(ids)*(len(ids)-1)/2)
	number := 1
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			m := newMatch(tournamentID, 1, number, bracket.SegmentPtr(bracket.RoundRobinSegment))
			p1, p2 := ids[i], ids[j]
			m.Player1ID = &p1
			m.Player2ID = &p2
			matches = append(matches, *m)
			number++
		}
	}
	return matches
}

// SwissRound turns a pairing into the match records of one Swiss round.
// Unpaired participants get no match row.
func SwissRound(tournamentID uuid.UUID, round int, pairs [][2]uuid.UUID) []bracket.Match {
	matches := make([]bracket.Match, 0, len(pairs))
	for i, pair := range pairs {
		m := newMatch(tournamentID, round, i+1, bracket.SegmentPtr(bracket.SwissSegment))
		p1, p2 := pair[0], pair[1]
		m.Player1ID = &p1
		m.Player2ID = &p2
		matches = append(matches, *m)
	}
	return matches
}
