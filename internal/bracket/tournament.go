package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft     TournamentStatus = "draft"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
)

type Format string

const (
	SingleElimination Format = "single_elimination"
	DoubleElimination Format = "double_elimination"
	RoundRobin        Format = "round_robin"
	Swiss             Format = "swiss"
)

func (f Format) Valid() bool {
	switch f {
	case SingleElimination, DoubleElimination, RoundRobin, Swiss:
		return true
	}
	return false
}

// IsElimination reports whether a match result in this format eliminates or advances someone.
func (f Format) IsElimination() bool {
	return f == SingleElimination || f == DoubleElimination
}

type Tournament struct {
	ID      uuid.UUID        `db:"id" json:"id"`
	Name    string           `db:"name" json:"name"`
	Format  Format           `db:"format" json:"format"`
	BestOf  int              `db:"best_of" json:"best_of"`
	Status  TournamentStatus `db:"status" json:"status"`
	MapPool MapPool          `db:"maps_pool" json:"maps_pool,omitempty"`

	// Swiss only. SwissRounds nil means ceil(log2 N).
	SwissRounds  *int `db:"swiss_rounds" json:"swiss_rounds,omitempty"`
	CurrentRound int  `db:"current_round" json:"current_round"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WinThreshold is the number of game wins needed to take a best-of series.
func (t *Tournament) WinThreshold() int {
	if t.BestOf <= 1 {
		return 1
	}
	return (t.BestOf + 1) / 2
}

// MapPool is the ordered list of maps, stored as a JSON array.
type MapPool []string

func (p MapPool) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *MapPool) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), p)
	case []byte:
		return json.Unmarshal(v, p)
	}
	return fmt.Errorf("maps_pool: cannot scan %T", src)
}
