package service

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/google/uuid"
)

// effects collects events during a transaction. They are published only
// after commit.
type effects struct {
	events      []func(*notify.Bus)
	roundClosed bool
	completed   bool
}

func emit[T any](fx *effects, ev T) {
	fx.events = append(fx.events, func(b *notify.Bus) { notify.Publish(b, ev) })
}

func (fx *effects) flush(b *notify.Bus) {
	for _, publish := range fx.events {
		publish(b)
	}
	fx.events = nil
}

// emitUpcoming announces matches that are pending with both slots filled in
// after but not in before. A nil before announces every ready match.
func emitUpcoming(fx *effects, before, after []bracket.Match) {
	ready := make(map[uuid.UUID]bool, len(before))
	for _, m := range before {
		if m.HasBothPlayers() {
			ready[m.ID] = true
		}
	}
	for _, m := range after {
		if m.IsCompleted() || !m.HasBothPlayers() || ready[m.ID] {
			continue
		}
		emit(fx, notify.MatchUpcoming{
			TournamentID: m.TournamentID,
			MatchID:      m.ID,
			Player1ID:    *m.Player1ID,
			Player2ID:    *m.Player2ID,
		})
	}
}
