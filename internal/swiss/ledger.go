package swiss

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

func indexOf(scores []bracket.SwissScore, teamID uuid.UUID) int {
	for i := range scores {
		if scores[i].TeamID == teamID {
			return i
		}
	}
	return -1
}

// RecordResult adds a completed match's win/loss or draw to both sides.
func RecordResult(scores []bracket.SwissScore, m bracket.Match) {
	if !m.IsCompleted() || !m.HasBothPlayers() {
		return
	}
	p1, p2 := indexOf(scores, *m.Player1ID), indexOf(scores, *m.Player2ID)
	if p1 < 0 || p2 < 0 {
		return
	}
	switch {
	case m.WinnerID == nil:
		scores[p1].Draws++
		scores[p2].Draws++
	case *m.WinnerID == *m.Player1ID:
		scores[p1].Wins++
		scores[p2].Losses++
	default:
		scores[p2].Wins++
		scores[p1].Losses++
	}
}

// AwardBye credits an unpaired team with a win.
func AwardBye(scores []bracket.SwissScore, teamID uuid.UUID) {
	if i := indexOf(scores, teamID); i >= 0 {
		scores[i].Wins++
	}
}

// Recompute refreshes the tiebreaks from current wins. Buchholz sums the wins
// of every opponent met in a completed match; opp_wins sums those of the
// opponents beaten.
func Recompute(scores []bracket.SwissScore, matches []bracket.Match) {
	wins := make(map[uuid.UUID]int, len(scores))
	for _, s := range scores {
		wins[s.TeamID] = s.Wins
	}
	for i := range scores {
		scores[i].BuchholzScore = 0
		scores[i].OppWins = 0
	}

	for _, m := range matches {
		if !m.IsCompleted() || !m.HasBothPlayers() {
			continue
		}
		p1, p2 := *m.Player1ID, *m.Player2ID
		i1, i2 := indexOf(scores, p1), indexOf(scores, p2)
		if i1 >= 0 {
			scores[i1].BuchholzScore += wins[p2]
		}
		if i2 >= 0 {
			scores[i2].BuchholzScore += wins[p1]
		}
		if m.WinnerID == nil {
			continue
		}
		if *m.WinnerID == p1 && i1 >= 0 {
			scores[i1].OppWins += wins[p2]
		}
		if *m.WinnerID == p2 && i2 >= 0 {
			scores[i2].OppWins += wins[p1]
		}
	}
}
