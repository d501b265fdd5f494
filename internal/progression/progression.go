// Package progression routes the outcome of a completed match through the
// tournament topology. It never touches storage: Route returns a Plan of
// conditional writes for the caller to apply inside its transaction.
package progression

import (
	"fmt"
	"sort"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/google/uuid"
)

// IntegrityError reports a destination that should exist but doesn't. The
// triggering match stays completed and unrouted.
type IntegrityError struct {
	TournamentID uuid.UUID
	MatchID      uuid.UUID
	Reason       string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity: match %s of tournament %s: %s", e.MatchID, e.TournamentID, e.Reason)
}

// SlotWrite seats a participant. Callers apply it only if the slot is still empty.
type SlotWrite struct {
	MatchID       uuid.UUID
	Slot          bracket.Slot
	ParticipantID uuid.UUID
}

// ByeWin completes a bye match whose single entrant has arrived.
type ByeWin struct {
	MatchID  uuid.UUID
	WinnerID uuid.UUID
}

// ResetMatch seats both grand finalists in the reset match.
type ResetMatch struct {
	MatchID   uuid.UUID
	Player1ID uuid.UUID
	Player2ID uuid.UUID
}

type Plan struct {
	Writes             []SlotWrite
	ByeWins            []ByeWin
	Reset              *ResetMatch
	CompleteTournament bool
	Warnings           []*IntegrityError
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Writes) == 0 && len(p.ByeWins) == 0 && p.Reset == nil && !p.CompleteTournament
}

type roundKey struct {
	segment bracket.Segment
	round   int
}

type router struct {
	tournament *bracket.Tournament
	byID       map[uuid.UUID]*bracket.Match
	rounds     map[roundKey][]*bracket.Match
	losersMax  int
	plan       Plan
	queue      []*bracket.Match
}

// Route plans everything that follows from completed. matches is the whole
// tournament; completed overrides its stored copy.
func Route(t *bracket.Tournament, completed bracket.Match, matches []bracket.Match) Plan {
	r := newRouter(t, matches)
	m, ok := r.byID[completed.ID]
	if !ok {
		r.warn(completed.ID, "completed match is not part of the tournament")
		return r.plan
	}
	*m = completed
	if !m.IsCompleted() {
		return r.plan
	}

	r.queue = append(r.queue, m)
	for len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.route(next)
	}

	if t.Format == bracket.RoundRobin && r.allCompleted() {
		r.plan.CompleteTournament = true
	}
	return r.plan
}

func newRouter(t *bracket.Tournament, matches []bracket.Match) *router {
	r := &router{
		tournament: t,
		byID:       make(map[uuid.UUID]*bracket.Match, len(matches)),
		rounds:     make(map[roundKey][]*bracket.Match),
	}
	for i := range matches {
		m := matches[i]
		r.byID[m.ID] = &m
		if m.IsReset {
			continue
		}
		key := roundKey{m.SegmentOrEmpty(), m.RoundNumber}
		r.rounds[key] = append(r.rounds[key], &m)
		if key.segment == bracket.LosersSegment && key.round > r.losersMax {
			r.losersMax = key.round
		}
	}
	for _, round := range r.rounds {
		sort.Slice(round, func(i, j int) bool { return round[i].MatchNumber < round[j].MatchNumber })
	}
	return r
}

func (r *router) warn(matchID uuid.UUID, format string, args ...any) {
	r.plan.Warnings = append(r.plan.Warnings, &IntegrityError{
		TournamentID: r.tournament.ID,
		MatchID:      matchID,
		Reason:       fmt.Sprintf(format, args...),
	})
}

func (r *router) route(m *bracket.Match) {
	if m.WinnerID == nil {
		return
	}
	winner := *m.WinnerID

	switch r.tournament.Format {
	case bracket.SingleElimination:
		if !r.advance(m, winner, "") {
			r.plan.CompleteTournament = true
		}
	case bracket.DoubleElimination:
		r.routeDouble(m, winner)
	}
}

func (r *router) routeDouble(m *bracket.Match, winner uuid.UUID) {
	switch m.SegmentOrEmpty() {
	case bracket.WinnersSegment:
		if !r.advance(m, winner, bracket.WinnersSegment) {
			r.seatGrandFinal(m, bracket.Player1, winner)
		}
		loser := m.Loser()
		if loser == nil {
			return
		}
		if r.losersMax == 0 {
			r.seatGrandFinal(m, bracket.Player2, *loser)
			return
		}
		target := 1
		if m.RoundNumber > 1 {
			target = 2 * (m.RoundNumber - 1)
		}
		r.seatFirstEmpty(m, roundKey{bracket.LosersSegment, target}, *loser)

	case bracket.LosersSegment:
		if m.RoundNumber >= r.losersMax {
			r.seatGrandFinal(m, bracket.Player2, winner)
			return
		}
		r.seatFirstEmpty(m, roundKey{bracket.LosersSegment, m.RoundNumber + 1}, winner)

	case bracket.GrandFinalSegment:
		if m.IsReset {
			r.plan.CompleteTournament = true
			return
		}
		if utils.Is(m.Player1ID, winner) {
			r.plan.CompleteTournament = true
			return
		}
		r.populateReset(m)

	default:
		r.warn(m.ID, "match has no bracket segment in a double elimination tournament")
	}
}

// advance seats the winner in the next round of the same ladder by position.
// It returns false when m is in the last round of its ladder.
func (r *router) advance(m *bracket.Match, winner uuid.UUID, segment bracket.Segment) bool {
	current := r.rounds[roundKey{segment, m.RoundNumber}]
	next, ok := r.rounds[roundKey{segment, m.RoundNumber + 1}]
	if !ok {
		return false
	}

	position := -1
	for i, c := range current {
		if c.ID == m.ID {
			position = i
			break
		}
	}
	if position < 0 || position/2 >= len(next) {
		r.warn(m.ID, "no destination in round %d for position %d", m.RoundNumber+1, position)
		return true
	}

	slot := bracket.Player1
	if position%2 == 1 {
		slot = bracket.Player2
	}
	r.seat(next[position/2], slot, winner)
	return true
}

func (r *router) grandFinal() *bracket.Match {
	round := r.rounds[roundKey{bracket.GrandFinalSegment, 1}]
	if len(round) == 0 {
		return nil
	}
	return round[0]
}

func (r *router) seatGrandFinal(from *bracket.Match, slot bracket.Slot, participant uuid.UUID) {
	gf := r.grandFinal()
	if gf == nil {
		r.warn(from.ID, "grand final match is missing")
		return
	}
	r.seat(gf, slot, participant)
}

// seatFirstEmpty scans the round in match order and takes the first empty
// slot. A participant already seated anywhere in the round is left alone.
func (r *router) seatFirstEmpty(from *bracket.Match, key roundKey, participant uuid.UUID) {
	round, ok := r.rounds[key]
	if !ok {
		r.warn(from.ID, "%s round %d is missing", key.segment, key.round)
		return
	}
	for _, m := range round {
		if m.Contains(participant) {
			return
		}
	}
	for _, m := range round {
		if m.Player1ID == nil {
			r.seat(m, bracket.Player1, participant)
			return
		}
		if !m.IsBye && m.Player2ID == nil {
			r.seat(m, bracket.Player2, participant)
			return
		}
	}
	r.warn(from.ID, "%s round %d has no free slot", key.segment, key.round)
}

// seat writes a slot if it is still empty and completes a bye whose entrant
// just arrived.
func (r *router) seat(m *bracket.Match, slot bracket.Slot, participant uuid.UUID) {
	if m.Occupant(slot) != nil || m.Contains(participant) {
		return
	}
	p := participant
	if slot == bracket.Player2 {
		m.Player2ID = &p
	} else {
		m.Player1ID = &p
	}
	r.plan.Writes = append(r.plan.Writes, SlotWrite{MatchID: m.ID, Slot: slot, ParticipantID: participant})

	if m.IsBye && !m.IsCompleted() {
		m.Status = bracket.MatchCompleted
		m.WinnerID = &p
		r.plan.ByeWins = append(r.plan.ByeWins, ByeWin{MatchID: m.ID, WinnerID: participant})
		r.queue = append(r.queue, m)
	}
}

func (r *router) populateReset(gf *bracket.Match) {
	var reset *bracket.Match
	for _, m := range r.byID {
		if m.IsReset {
			reset = m
			break
		}
	}
	if reset == nil {
		r.warn(gf.ID, "reset match is missing")
		return
	}
	if !gf.HasBothPlayers() {
		r.warn(gf.ID, "grand final completed without both finalists")
		return
	}
	if reset.Player1ID != nil || reset.Player2ID != nil {
		return
	}
	p1, p2 := *gf.Player1ID, *gf.Player2ID
	reset.Player1ID = &p1
	reset.Player2ID = &p2
	r.plan.Reset = &ResetMatch{MatchID: reset.ID, Player1ID: p1, Player2ID: p2}
}

func (r *router) allCompleted() bool {
	for _, m := range r.byID {
		if !m.IsCompleted() && m.Status != bracket.MatchCancelled {
			return false
		}
	}
	return true
}

// Apply returns matches with the plan's slot, bye and reset writes applied,
// honouring the same only-if-empty rule as the store.
func (p Plan) Apply(matches []bracket.Match) []bracket.Match {
	out := make([]bracket.Match, len(matches))
	copy(out, matches)
	index := make(map[uuid.UUID]int, len(out))
	for i := range out {
		index[out[i].ID] = i
	}

	for _, w := range p.Writes {
		i, ok := index[w.MatchID]
		if !ok {
			continue
		}
		id := w.ParticipantID
		if w.Slot == bracket.Player2 && out[i].Player2ID == nil {
			out[i].Player2ID = &id
		} else if w.Slot == bracket.Player1 && out[i].Player1ID == nil {
			out[i].Player1ID = &id
		}
	}
	for _, b := range p.ByeWins {
		if i, ok := index[b.MatchID]; ok && !out[i].IsCompleted() {
			id := b.WinnerID
			out[i].Status = bracket.MatchCompleted
			out[i].WinnerID = &id
		}
	}
	if p.Reset != nil {
		if i, ok := index[p.Reset.MatchID]; ok && out[i].Player1ID == nil && out[i].Player2ID == nil {
			p1, p2 := p.Reset.Player1ID, p.Reset.Player2ID
			out[i].Player1ID = &p1
			out[i].Player2ID = &p2
			out[i].ScoreP1 = utils.Ptr(0)
			out[i].ScoreP2 = utils.Ptr(0)
		}
	}
	return out
}
