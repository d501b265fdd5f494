package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/db"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	database, err := db.Open("sqlite3", dsn)
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })

	return database
}

type fixture struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	scores      *store.ScoreStore
	swissStore  *store.SwissStore
	bus         *notify.Bus

	tournamentService *TournamentService
	matchService      *MatchService
	swissService      *SwissService
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	database := setupTestDB(t)
	f := &fixture{
		db:          database,
		tournaments: store.NewTournamentStore(database),
		scores:      store.NewScoreStore(database),
		swissStore:  store.NewSwissStore(database),
		bus:         notify.NewBus(),
	}
	f.tournamentService = NewTournamentService(database, f.tournaments, f.swissStore, f.bus, opts)
	f.swissService = NewSwissService(database, f.tournaments, f.swissStore, f.bus, opts)
	f.matchService = NewMatchService(database, f.tournaments, f.scores, f.swissStore, f.swissService, f.bus, opts)
	return f
}

// create stores a draft tournament with n participants and returns the
// participants in seed order.
func (f *fixture) create(t *testing.T, format bracket.Format, bestOf, n int) (*bracket.Tournament, []bracket.Participant) {
	t.Helper()
	ctx := context.Background()

	input := TournamentInput{Name: "Test Tournament", Format: format, BestOf: bestOf}
	for i := 0; i < n; i++ {
		input.Participants = append(input.Participants, ParticipantInput{Name: fmt.Sprintf("Team %d", i+1)})
	}
	tournament, err := f.tournamentService.CreateTournament(ctx, input)
	require.NoError(t, err)

	participants, err := f.tournaments.GetParticipants(ctx, f.db, tournament.ID)
	require.NoError(t, err)
	require.Len(t, participants, n)
	return tournament, participants
}

// start creates a tournament and generates its topology.
func (f *fixture) start(t *testing.T, format bracket.Format, bestOf, n int) (*bracket.Tournament, []bracket.Participant) {
	t.Helper()
	tournament, participants := f.create(t, format, bestOf, n)
	_, err := f.tournamentService.GenerateTopology(context.Background(), tournament.ID, "", nil)
	require.NoError(t, err)
	return tournament, participants
}

func (f *fixture) tournament(t *testing.T, id uuid.UUID) *bracket.Tournament {
	t.Helper()
	tournament, err := f.tournaments.GetTournament(context.Background(), f.db, id)
	require.NoError(t, err)
	return tournament
}

// match returns the stored match at a position of the topology.
func (f *fixture) match(t *testing.T, tournamentID uuid.UUID, segment bracket.Segment, round, number int) *bracket.Match {
	t.Helper()
	matches, err := f.tournaments.GetMatches(context.Background(), f.db, tournamentID)
	require.NoError(t, err)
	for i := range matches {
		m := matches[i]
		if m.SegmentOrEmpty() == segment && m.RoundNumber == round && m.MatchNumber == number && !m.IsReset {
			return &m
		}
	}
	t.Fatalf("no match %s r%d #%d", segment, round, number)
	return nil
}

func (f *fixture) reset(t *testing.T, tournamentID uuid.UUID) *bracket.Match {
	t.Helper()
	matches, err := f.tournaments.GetMatches(context.Background(), f.db, tournamentID)
	require.NoError(t, err)
	for i := range matches {
		if matches[i].IsReset {
			return &matches[i]
		}
	}
	t.Fatal("no reset match")
	return nil
}

// agree has both sides of m declare the same result, player1 scoring s1.
func (f *fixture) agree(t *testing.T, m *bracket.Match, s1, s2 int) {
	t.Helper()
	ctx := context.Background()
	_, err := f.matchService.DeclareScore(ctx, m.ID, *m.Player1ID, s1, s2, "captain-1")
	require.NoError(t, err)
	_, err = f.matchService.DeclareScore(ctx, m.ID, *m.Player2ID, s2, s1, "captain-2")
	require.NoError(t, err)
}

// agreeGame has both sides of m declare the same result for one game.
func (f *fixture) agreeGame(t *testing.T, m *bracket.Match, number, s1, s2 int) {
	t.Helper()
	ctx := context.Background()
	_, err := f.matchService.DeclareGameScore(ctx, m.ID, number, *m.Player1ID, s1, s2, "captain-1")
	require.NoError(t, err)
	_, err = f.matchService.DeclareGameScore(ctx, m.ID, number, *m.Player2ID, s2, s1, "captain-2")
	require.NoError(t, err)
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, reason, verr.Reason)
}

// collect records every event of type T published on the bus.
func collect[T any](t *testing.T, bus *notify.Bus) *[]T {
	t.Helper()
	var events []T
	unsubscribe := notify.Subscribe(bus, func(ev T) { events = append(events, ev) })
	t.Cleanup(unsubscribe)
	return &events
}
