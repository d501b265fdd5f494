package service

import (
	"context"
	"errors"
	"testing"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/reconcile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleEliminationEndToEnd(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	results := collect[notify.MatchResult](t, f.bus)
	upcoming := collect[notify.MatchUpcoming](t, f.bus)
	completed := collect[notify.TournamentCompleted](t, f.bus)

	tournament, p := f.start(t, bracket.SingleElimination, 1, 4)
	assert.Equal(t, bracket.TournamentOngoing, f.tournament(t, tournament.ID).Status)

	m1 := f.match(t, tournament.ID, "", 1, 1)
	m2 := f.match(t, tournament.ID, "", 1, 2)
	assert.Equal(t, p[0].ID, *m1.Player1ID)
	assert.Equal(t, p[1].ID, *m1.Player2ID)
	assert.Equal(t, p[2].ID, *m2.Player1ID)

	// First declaration alone stays pending.
	out, err := f.matchService.DeclareScore(ctx, m1.ID, p[0].ID, 2, 1, "captain-1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatePending, out.State)

	out, err = f.matchService.DeclareScore(ctx, m1.ID, p[1].ID, 1, 2, "captain-2")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateConfirmed, out.State)
	assert.Equal(t, p[0].ID, *out.Winner)

	final := f.match(t, tournament.ID, "", 2, 1)
	assert.Equal(t, p[0].ID, *final.Player1ID)
	assert.Nil(t, final.Player2ID)

	f.agree(t, m2, 0, 2)
	final = f.match(t, tournament.ID, "", 2, 1)
	assert.Equal(t, p[3].ID, *final.Player2ID)

	f.agree(t, final, 1, 2)
	done := f.tournament(t, tournament.ID)
	assert.Equal(t, bracket.TournamentCompleted, done.Status)

	final = f.match(t, tournament.ID, "", 2, 1)
	assert.Equal(t, p[3].ID, *final.WinnerID)
	assert.Equal(t, 1, *final.ScoreP1)
	assert.Equal(t, 2, *final.ScoreP2)

	assert.Len(t, *results, 3)
	assert.Len(t, *completed, 1)
	// Two first-round matches at generation plus the final once seated.
	assert.Len(t, *upcoming, 3)

	reports, err := f.scores.ReportsForMatch(ctx, f.db, m1.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.True(t, r.IsResolved)
	}
}

func TestDisputeAndOverride(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	disputes := collect[notify.ScoreDisputed](t, f.bus)
	results := collect[notify.MatchResult](t, f.bus)

	tournament, p := f.start(t, bracket.SingleElimination, 1, 2)
	m := f.match(t, tournament.ID, "", 1, 1)

	_, err := f.matchService.DeclareScore(ctx, m.ID, p[0].ID, 2, 1, "captain-1")
	require.NoError(t, err)
	out, err := f.matchService.DeclareScore(ctx, m.ID, p[1].ID, 2, 1, "captain-2")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateDisputed, out.State)
	require.Len(t, *disputes, 1)

	stored := f.match(t, tournament.ID, "", 1, 1)
	assert.Equal(t, bracket.ScoreDisputed, stored.ScoreStatus)
	assert.Equal(t, bracket.MatchPending, stored.Status)

	_, err = f.matchService.DeclareScore(ctx, m.ID, p[0].ID, 3, 1, "captain-1")
	requireReason(t, err, "match_disputed")
	assert.ErrorIs(t, err, ErrMatchDisputed)

	require.NoError(t, f.matchService.ResolveDispute(ctx, m.ID, 1, 2))
	stored = f.match(t, tournament.ID, "", 1, 1)
	assert.True(t, stored.IsCompleted())
	assert.Equal(t, bracket.ScoreConfirmed, stored.ScoreStatus)
	assert.Equal(t, p[1].ID, *stored.WinnerID)
	assert.Equal(t, bracket.TournamentCompleted, f.tournament(t, tournament.ID).Status)

	require.Len(t, *results, 1)
	assert.True(t, (*results)[0].Override)

	pending, err := f.scores.UnresolvedReports(ctx, f.db, m.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = f.matchService.ResolveDispute(ctx, m.ID, 2, 1)
	requireReason(t, err, "match_completed")
}

func TestRedeclarationSupersedes(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	tournament, p := f.start(t, bracket.SingleElimination, 1, 2)
	m := f.match(t, tournament.ID, "", 1, 1)

	_, err := f.matchService.DeclareScore(ctx, m.ID, p[0].ID, 2, 1, "captain-1")
	require.NoError(t, err)
	_, err = f.matchService.DeclareScore(ctx, m.ID, p[0].ID, 1, 2, "captain-1")
	require.NoError(t, err)

	pending, err := f.scores.UnresolvedReports(ctx, f.db, m.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].ScoreTeam)

	out, err := f.matchService.DeclareScore(ctx, m.ID, p[1].ID, 2, 1, "captain-2")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateConfirmed, out.State)
	assert.Equal(t, p[1].ID, *out.Winner)

	all, err := f.scores.ReportsForMatch(ctx, f.db, m.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeclarationValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	tournament, p := f.start(t, bracket.SingleElimination, 1, 4)
	m1 := f.match(t, tournament.ID, "", 1, 1)
	final := f.match(t, tournament.ID, "", 2, 1)

	testCases := []struct {
		name    string
		matchID uuid.UUID
		teamID  uuid.UUID
		my, opp int
		reason  string
	}{
		{"negative score", m1.ID, p[0].ID, -1, 2, "negative_score"},
		{"team outside the match", m1.ID, p[2].ID, 2, 1, "team_not_in_match"},
		{"empty slot", final.ID, p[0].ID, 2, 1, "match_not_ready"},
		{"draw in elimination", m1.ID, p[0].ID, 1, 1, "draw_not_allowed"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.matchService.DeclareScore(ctx, tc.matchID, tc.teamID, tc.my, tc.opp, "captain")
			requireReason(t, err, tc.reason)
		})
	}

	_, err := f.matchService.DeclareScore(ctx, uuid.New(), p[0].ID, 2, 1, "captain")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.matchService.DeclareGameScore(ctx, m1.ID, 1, p[0].ID, 13, 5, "captain")
	requireReason(t, err, "not_series")

	// Nothing was written by the rejected calls.
	reports, err := f.scores.ReportsForMatch(ctx, f.db, m1.ID)
	require.NoError(t, err)
	assert.Empty(t, reports)

	f.agree(t, m1, 2, 0)
	_, err = f.matchService.DeclareScore(ctx, m1.ID, p[0].ID, 2, 0, "captain")
	requireReason(t, err, "match_completed")
}

func TestBestOfThreeSeries(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	tournament, p := f.start(t, bracket.SingleElimination, 3, 2)
	m := f.match(t, tournament.ID, "", 1, 1)

	out, err := f.matchService.DeclareGameScore(ctx, m.ID, 1, p[0].ID, 13, 7, "captain-1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatePending, out.State)
	out, err = f.matchService.DeclareGameScore(ctx, m.ID, 1, p[1].ID, 7, 13, "captain-2")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateConfirmed, out.State)
	assert.False(t, f.match(t, tournament.ID, "", 1, 1).IsCompleted())

	_, err = f.matchService.DeclareGameScore(ctx, m.ID, 1, p[0].ID, 13, 7, "captain-1")
	requireReason(t, err, "game_completed")
	_, err = f.matchService.DeclareGameScore(ctx, m.ID, 4, p[0].ID, 13, 7, "captain-1")
	requireReason(t, err, "invalid_game_number")

	// Both sides claim game 2.
	_, err = f.matchService.DeclareGameScore(ctx, m.ID, 2, p[0].ID, 13, 5, "captain-1")
	require.NoError(t, err)
	out, err = f.matchService.DeclareGameScore(ctx, m.ID, 2, p[1].ID, 13, 5, "captain-2")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateDisputed, out.State)
	_, err = f.matchService.DeclareGameScore(ctx, m.ID, 2, p[1].ID, 5, 13, "captain-2")
	requireReason(t, err, "game_disputed")

	data, err := f.matchService.GetMatchData(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, data.Games, 2)
	game2 := data.Games[1]
	assert.Equal(t, bracket.ScoreDisputed, game2.ScoreStatus)

	require.NoError(t, f.matchService.ResolveGameDispute(ctx, game2.ID, 13, 5))

	stored := f.match(t, tournament.ID, "", 1, 1)
	assert.True(t, stored.IsCompleted())
	assert.Equal(t, p[0].ID, *stored.WinnerID)
	assert.Equal(t, 2, *stored.ScoreP1)
	assert.Equal(t, 0, *stored.ScoreP2)
	assert.Equal(t, bracket.TournamentCompleted, f.tournament(t, tournament.ID).Status)

	err = f.matchService.ResolveGameDispute(ctx, game2.ID, 5, 13)
	requireReason(t, err, "game_completed")
}

func TestEliminationSeriesRejectsDrawnGames(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	tournament, p := f.start(t, bracket.SingleElimination, 3, 2)
	m := f.match(t, tournament.ID, "", 1, 1)

	_, err := f.matchService.DeclareGameScore(ctx, m.ID, 1, p[0].ID, 10, 10, "captain-1")
	requireReason(t, err, "draw_not_allowed")

	data, err := f.matchService.GetMatchData(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, data.Games)

	// Both sides claim game 1, so it needs an override.
	_, err = f.matchService.DeclareGameScore(ctx, m.ID, 1, p[0].ID, 13, 5, "captain-1")
	require.NoError(t, err)
	_, err = f.matchService.DeclareGameScore(ctx, m.ID, 1, p[1].ID, 13, 5, "captain-2")
	require.NoError(t, err)

	data, err = f.matchService.GetMatchData(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, data.Games, 1)
	err = f.matchService.ResolveGameDispute(ctx, data.Games[0].ID, 7, 7)
	requireReason(t, err, "draw_not_allowed")
}

func TestMatchDeclarationAfterGamesStarted(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	tournament, p := f.start(t, bracket.SingleElimination, 3, 2)
	m := f.match(t, tournament.ID, "", 1, 1)

	f.agreeGame(t, m, 1, 13, 7)

	_, err := f.matchService.DeclareScore(ctx, m.ID, p[1].ID, 2, 0, "captain-2")
	requireReason(t, err, "series_in_progress")

	reports, err := f.scores.ReportsForMatch(ctx, f.db, m.ID)
	require.NoError(t, err)
	assert.Empty(t, reports)

	f.agreeGame(t, m, 2, 13, 9)
	stored := f.match(t, tournament.ID, "", 1, 1)
	assert.True(t, stored.IsCompleted())
	assert.Equal(t, p[0].ID, *stored.WinnerID)
}

func TestDoubleEliminationGrandFinalReset(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	tournament, p := f.start(t, bracket.DoubleElimination, 1, 2)

	opening := f.match(t, tournament.ID, bracket.WinnersSegment, 1, 1)
	require.NoError(t, f.matchService.ResolveDispute(ctx, opening.ID, 0, 2))

	gf := f.match(t, tournament.ID, bracket.GrandFinalSegment, 1, 1)
	assert.Equal(t, p[1].ID, *gf.Player1ID)
	assert.Equal(t, p[0].ID, *gf.Player2ID)

	// The losers-side finalist takes the grand final, forcing a reset.
	f.agree(t, gf, 1, 2)
	assert.Equal(t, bracket.TournamentOngoing, f.tournament(t, tournament.ID).Status)

	reset := f.reset(t, tournament.ID)
	assert.Equal(t, p[1].ID, *reset.Player1ID)
	assert.Equal(t, p[0].ID, *reset.Player2ID)
	assert.Equal(t, 0, *reset.ScoreP1)
	assert.Equal(t, 0, *reset.ScoreP2)
	assert.Equal(t, bracket.MatchPending, reset.Status)

	f.agree(t, reset, 3, 1)
	assert.Equal(t, bracket.TournamentCompleted, f.tournament(t, tournament.ID).Status)
}

func TestDoubleEliminationFullRun(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	warnings := collect[notify.IntegrityWarning](t, f.bus)
	tournament, _ := f.start(t, bracket.DoubleElimination, 1, 6)

	// Keep resolving the first ready match in favour of player1.
	for i := 0; i < 32; i++ {
		if f.tournament(t, tournament.ID).Status == bracket.TournamentCompleted {
			break
		}
		matches, err := f.tournaments.GetMatches(ctx, f.db, tournament.ID)
		require.NoError(t, err)
		var next *bracket.Match
		for j := range matches {
			if !matches[j].IsCompleted() && matches[j].HasBothPlayers() {
				next = &matches[j]
				break
			}
		}
		require.NotNil(t, next, "tournament stalled")
		require.NoError(t, f.matchService.ResolveDispute(ctx, next.ID, 2, 0))
	}

	assert.Equal(t, bracket.TournamentCompleted, f.tournament(t, tournament.ID).Status)
	assert.Empty(t, *warnings)
}

func TestRoundRobinAllowsDraws(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	tournament, p := f.start(t, bracket.RoundRobin, 1, 3)

	matches, err := f.tournaments.GetMatches(ctx, f.db, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	out, err := f.matchService.DeclareScore(ctx, matches[0].ID, *matches[0].Player1ID, 1, 1, "captain-1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatePending, out.State)
	out, err = f.matchService.DeclareScore(ctx, matches[0].ID, *matches[0].Player2ID, 1, 1, "captain-2")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StateConfirmed, out.State)
	assert.Nil(t, out.Winner)

	require.NoError(t, f.matchService.ResolveDispute(ctx, matches[1].ID, 3, 0))
	assert.Equal(t, bracket.TournamentOngoing, f.tournament(t, tournament.ID).Status)
	require.NoError(t, f.matchService.ResolveDispute(ctx, matches[2].ID, 0, 3))
	assert.Equal(t, bracket.TournamentCompleted, f.tournament(t, tournament.ID).Status)

	// p0 drew p1 and beat p2, p2 beat p1. p0 and p2 tie on wins and
	// buchholz; p0 beat the stronger opponent.
	standings, err := f.tournamentService.Standings(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, p[0].ID, standings[0].ParticipantID)
	assert.Equal(t, 1, standings[0].Wins)
	assert.Equal(t, 1, standings[0].Draws)
	assert.Equal(t, 1, standings[0].OppWins)
	assert.Equal(t, p[2].ID, standings[1].ParticipantID)
	assert.Equal(t, p[1].ID, standings[2].ParticipantID)
	assert.Equal(t, 1, standings[2].Losses)
	assert.Equal(t, 3, standings[2].Rank)
}

func TestValidationErrorWrapsSentinel(t *testing.T) {
	err := reject(ErrDrawNotAllowed)
	assert.True(t, errors.Is(err, ErrDrawNotAllowed))
	assert.Equal(t, "draw_not_allowed: elimination matches cannot end in a draw", err.Error())

	err = reject(errors.New("something else"))
	requireReason(t, err, "invalid")
}
