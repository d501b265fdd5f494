// Package series decides best-of-N matches from their per-game results.
package series

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

type Result struct {
	Winner      *uuid.UUID
	Team1Wins   int
	Team2Wins   int
	IsCompleted bool
}

// Threshold is the number of game wins that decides a best-of series.
func Threshold(bestOf int) int {
	if bestOf <= 1 {
		return 1
	}
	return (bestOf + 1) / 2
}

// CalculateMatchWinner counts completed games for each side. The series is
// decided as soon as one side reaches the threshold. If every game was played
// without that happening the side with more wins takes it anyway, and level
// wins end the series as a draw.
func CalculateMatchWinner(games []bracket.MatchGame, bestOf int, team1, team2 uuid.UUID) Result {
	var res Result
	played := 0
	for _, g := range games {
		if !g.IsCompleted() {
			continue
		}
		played++
		if g.WinnerTeamID == nil {
			continue
		}
		switch *g.WinnerTeamID {
		case team1:
			res.Team1Wins++
		case team2:
			res.Team2Wins++
		}
	}

	threshold := Threshold(bestOf)
	switch {
	case res.Team1Wins >= threshold:
		res.Winner = &team1
	case res.Team2Wins >= threshold:
		res.Winner = &team2
	case played >= bestOf && res.Team1Wins > res.Team2Wins:
		res.Winner = &team1
	case played >= bestOf && res.Team2Wins > res.Team1Wins:
		res.Winner = &team2
	}
	res.IsCompleted = res.Winner != nil || played >= bestOf
	return res
}
