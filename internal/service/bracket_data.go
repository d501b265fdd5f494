package service

import (
	"sort"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/swiss"
	"github.com/google/uuid"
)

type Round struct {
	Number  int             `json:"round"`
	Matches []bracket.Match `json:"matches"`
}

// SegmentRounds holds the rounds of one bracket segment. Segment is empty for
// single elimination.
type SegmentRounds struct {
	Segment bracket.Segment `json:"segment"`
	Rounds  []Round         `json:"rounds"`
}

type BracketData struct {
	Segments []SegmentRounds `json:"segments"`
}

var segmentOrder = []bracket.Segment{
	"",
	bracket.WinnersSegment,
	bracket.LosersSegment,
	bracket.GrandFinalSegment,
	bracket.RoundRobinSegment,
	bracket.SwissSegment,
}

// PrepareBracketData groups matches by segment and round, each round ordered
// by match number.
func PrepareBracketData(matches []bracket.Match) BracketData {
	grouped := make(map[bracket.Segment]map[int][]bracket.Match)
	for _, m := range matches {
		seg := m.SegmentOrEmpty()
		if grouped[seg] == nil {
			grouped[seg] = make(map[int][]bracket.Match)
		}
		grouped[seg][m.RoundNumber] = append(grouped[seg][m.RoundNumber], m)
	}

	var data BracketData
	for _, seg := range segmentOrder {
		rounds, ok := grouped[seg]
		if !ok {
			continue
		}
		roundNums := make([]int, 0, len(rounds))
		for r := range rounds {
			roundNums = append(roundNums, r)
		}
		sort.Ints(roundNums)

		sr := SegmentRounds{Segment: seg}
		for _, r := range roundNums {
			round := rounds[r]
			sort.Slice(round, func(i, j int) bool {
				return round[i].MatchNumber < round[j].MatchNumber
			})
			sr.Rounds = append(sr.Rounds, Round{Number: r, Matches: round})
		}
		data.Segments = append(data.Segments, sr)
	}
	return data
}

type Standing struct {
	Rank          int       `json:"rank"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	Draws         int       `json:"draws"`
	Buchholz      int       `json:"buchholz"`
	OppWins       int       `json:"opp_wins"`
}

// computeStandings ranks participants. Swiss tournaments use the stored
// ledger; other formats tally their completed contested matches the same way.
func computeStandings(t *bracket.Tournament, participants []bracket.Participant, matches []bracket.Match, ledger []bracket.SwissScore) []Standing {
	scores := ledger
	if t.Format != bracket.Swiss || len(scores) == 0 {
		scores = make([]bracket.SwissScore, len(participants))
		for i, p := range participants {
			scores[i] = bracket.SwissScore{TournamentID: t.ID, TeamID: p.ID}
		}
		for _, m := range matches {
			if !m.IsBye {
				swiss.RecordResult(scores, m)
			}
		}
		swiss.Recompute(scores, matches)
	}

	names := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}

	ranked := swiss.Rank(scores)
	standings := make([]Standing, len(ranked))
	for i, s := range ranked {
		standings[i] = Standing{
			Rank:          i + 1,
			ParticipantID: s.TeamID,
			Name:          names[s.TeamID],
			Wins:          s.Wins,
			Losses:        s.Losses,
			Draws:         s.Draws,
			Buchholz:      s.BuchholzScore,
			OppWins:       s.OppWins,
		}
	}
	return standings
}
