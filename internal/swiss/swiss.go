// Package swiss ranks Swiss-system standings, pairs the next round and keeps
// the tiebreak ledger.
package swiss

import (
	"bytes"
	"math/bits"
	"sort"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/google/uuid"
)

type Pairing struct {
	Pairs [][2]uuid.UUID `json:"pairs"`
	Byes  []uuid.UUID    `json:"byes"`
}

// Rounds is the number of rounds to play: the configured value, or
// ceil(log2 n) when none is set.
func Rounds(n int, configured *int) int {
	if rounds := utils.OrZero(configured); rounds > 0 {
		return rounds
	}
	if n < 2 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Rank sorts by wins, buchholz and opp_wins descending, then team id.
func Rank(scores []bracket.SwissScore) []bracket.SwissScore {
	ranked := make([]bracket.SwissScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.BuchholzScore != b.BuchholzScore {
			return a.BuchholzScore > b.BuchholzScore
		}
		if a.OppWins != b.OppWins {
			return a.OppWins > b.OppWins
		}
		return bytes.Compare(a.TeamID[:], b.TeamID[:]) < 0
	})
	return ranked
}

// History records who has already met whom.
type History map[uuid.UUID]map[uuid.UUID]bool

// NewHistory collects every seated pair of the given matches, whatever their status.
func NewHistory(matches []bracket.Match) History {
	h := History{}
	for _, m := range matches {
		if !m.HasBothPlayers() {
			continue
		}
		h.add(*m.Player1ID, *m.Player2ID)
	}
	return h
}

func (h History) add(a, b uuid.UUID) {
	if h[a] == nil {
		h[a] = map[uuid.UUID]bool{}
	}
	if h[b] == nil {
		h[b] = map[uuid.UUID]bool{}
	}
	h[a][b] = true
	h[b][a] = true
}

func (h History) Played(a, b uuid.UUID) bool {
	return h[a][b]
}

// Pair walks the ranking and gives each unpaired team the closest-ranked
// unpaired opponent it has not met. Teams left without one get a bye.
func Pair(ranked []bracket.SwissScore, history History) Pairing {
	var p Pairing
	used := make([]bool, len(ranked))
	for i := range ranked {
		if used[i] {
			continue
		}
		used[i] = true
		found := false
		for j := i + 1; j < len(ranked); j++ {
			if used[j] || history.Played(ranked[i].TeamID, ranked[j].TeamID) {
				continue
			}
			used[j] = true
			p.Pairs = append(p.Pairs, [2]uuid.UUID{ranked[i].TeamID, ranked[j].TeamID})
			found = true
			break
		}
		if !found {
			p.Byes = append(p.Byes, ranked[i].TeamID)
		}
	}
	return p
}
