package reconcile

import (
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	testCases := []struct {
		name     string
		decls    []Declaration
		expected State
		score1   int
		score2   int
		winner   *uuid.UUID
	}{
		{
			name:     "nothing declared",
			expected: StatePending,
		},
		{
			name:     "one side declared",
			decls:    []Declaration{{TeamID: a, Own: 2, Opponent: 1}},
			expected: StatePending,
		},
		{
			name: "concordant",
			decls: []Declaration{
				{TeamID: a, Own: 2, Opponent: 1},
				{TeamID: b, Own: 1, Opponent: 2},
			},
			expected: StateConfirmed,
			score1:   2,
			score2:   1,
			winner:   &a,
		},
		{
			name: "concordant, declared in reverse order",
			decls: []Declaration{
				{TeamID: b, Own: 3, Opponent: 0},
				{TeamID: a, Own: 0, Opponent: 3},
			},
			expected: StateConfirmed,
			score1:   0,
			score2:   3,
			winner:   &b,
		},
		{
			name: "discordant",
			decls: []Declaration{
				{TeamID: a, Own: 2, Opponent: 1},
				{TeamID: b, Own: 1, Opponent: 3},
			},
			expected: StateDisputed,
		},
		{
			name: "both claim the win",
			decls: []Declaration{
				{TeamID: a, Own: 2, Opponent: 1},
				{TeamID: b, Own: 2, Opponent: 1},
			},
			expected: StateDisputed,
		},
		{
			name: "concordant draw",
			decls: []Declaration{
				{TeamID: a, Own: 1, Opponent: 1},
				{TeamID: b, Own: 1, Opponent: 1},
			},
			expected: StateConfirmed,
			score1:   1,
			score2:   1,
		},
		{
			name: "latest declaration of a side wins",
			decls: []Declaration{
				{TeamID: a, Own: 3, Opponent: 1},
				{TeamID: a, Own: 2, Opponent: 1},
				{TeamID: b, Own: 1, Opponent: 2},
			},
			expected: StateConfirmed,
			score1:   2,
			score2:   1,
			winner:   &a,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			agreement := New(a, b)
			for _, d := range tc.decls {
				require.NoError(t, agreement.Record(d))
			}

			out := agreement.Evaluate()
			assert.Equal(t, tc.expected, out.State)
			assert.Equal(t, tc.score1, out.Score1)
			assert.Equal(t, tc.score2, out.Score2)
			if tc.winner == nil {
				assert.Nil(t, out.Winner)
			} else {
				require.NotNil(t, out.Winner)
				assert.Equal(t, *tc.winner, *out.Winner)
			}
		})
	}
}

func TestRecordRejectsOutsider(t *testing.T) {
	agreement := New(uuid.New(), uuid.New())
	err := agreement.Record(Declaration{TeamID: uuid.New(), Own: 1})
	assert.ErrorIs(t, err, ErrUnknownTeam)
	assert.Equal(t, StatePending, agreement.State())
}

func TestStateAwaitingOnceBothDeclared(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	agreement := New(a, b)
	require.NoError(t, agreement.Record(Declaration{TeamID: a, Own: 1, Opponent: 0}))
	assert.Equal(t, StatePending, agreement.State())
	require.NoError(t, agreement.Record(Declaration{TeamID: b, Own: 0, Opponent: 1}))
	assert.Equal(t, StateAwaiting, agreement.State())

	d := agreement.Declaration(a)
	require.NotNil(t, d)
	assert.Equal(t, 1, d.Own)
	assert.Nil(t, agreement.Declaration(uuid.New()))
}

func TestFromReportsSkipsResolved(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	matchID := uuid.New()
	now := time.Now()

	reports := []bracket.ScoreReport{
		{ID: uuid.New(), MatchID: matchID, TeamID: a, ScoreTeam: 5, ScoreOpponent: 0, IsResolved: true, CreatedAt: now},
		{ID: uuid.New(), MatchID: matchID, TeamID: a, ScoreTeam: 2, ScoreOpponent: 1, CreatedAt: now.Add(time.Second)},
		{ID: uuid.New(), MatchID: matchID, TeamID: b, ScoreTeam: 1, ScoreOpponent: 2, CreatedAt: now.Add(2 * time.Second)},
	}

	agreement, err := FromReports(a, b, reports)
	require.NoError(t, err)
	out := agreement.Evaluate()
	assert.Equal(t, StateConfirmed, out.State)
	assert.Equal(t, 2, out.Score1)
	assert.Equal(t, 1, out.Score2)
}

func TestFromGameReportsDisputed(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	gameID := uuid.New()

	agreement, err := FromGameReports(a, b, []bracket.GameScoreReport{
		{ID: uuid.New(), GameID: gameID, TeamID: a, ScoreTeam: 13, ScoreOpponent: 11},
		{ID: uuid.New(), GameID: gameID, TeamID: b, ScoreTeam: 13, ScoreOpponent: 11},
	})
	require.NoError(t, err)
	assert.Equal(t, StateDisputed, agreement.Evaluate().State)
}

func TestDecide(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	out := Decide(a, b, 0, 2)
	assert.Equal(t, StateConfirmed, out.State)
	require.NotNil(t, out.Winner)
	assert.Equal(t, b, *out.Winner)

	assert.Nil(t, Decide(a, b, 1, 1).Winner)
}
