package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrGameNotFound       = errors.New("game not found")
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx. Reads that must see a
// transaction's own writes take the transaction.
type Queryer interface {
	sqlx.QueryerContext
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// applied reports whether a conditional update touched a row.
func applied(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rows > 0, nil
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	ok, err := applied(result)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundError
	}
	return nil
}
