package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrNegativeScore         = errors.New("scores must not be negative")
	ErrTeamNotInMatch        = errors.New("team is not part of this match")
	ErrMatchCompleted        = errors.New("match is already completed")
	ErrMatchDisputed         = errors.New("match score is disputed and waits for an admin")
	ErrMatchNotReady         = errors.New("match is still waiting for a participant")
	ErrGameCompleted         = errors.New("game is already completed")
	ErrGameDisputed          = errors.New("game score is disputed and waits for an admin")
	ErrInvalidGameNumber     = errors.New("game number is outside the series")
	ErrNotSeries             = errors.New("match is not a best-of series")
	ErrDrawNotAllowed        = errors.New("elimination matches cannot end in a draw")
	ErrSeriesInProgress      = errors.New("series is being reported game by game")
	ErrRoundNotClosed        = errors.New("current round still has open matches")
	ErrNotSwiss              = errors.New("tournament is not a swiss tournament")
	ErrAlreadyGenerated      = errors.New("tournament already has matches")
	ErrNotStarted            = errors.New("tournament has no matches yet")
	ErrNotEnoughParticipants = errors.New("at least two participants are required")
	ErrUnknownParticipant    = errors.New("participant does not belong to this tournament")
	ErrInvalidFormat         = errors.New("unsupported tournament format")
	ErrInvalidBestOf         = errors.New("best_of must be an odd number of at least 1")
)

var reasons = map[error]string{
	ErrNegativeScore:         "negative_score",
	ErrTeamNotInMatch:        "team_not_in_match",
	ErrMatchCompleted:        "match_completed",
	ErrMatchDisputed:         "match_disputed",
	ErrMatchNotReady:         "match_not_ready",
	ErrGameCompleted:         "game_completed",
	ErrGameDisputed:          "game_disputed",
	ErrInvalidGameNumber:     "invalid_game_number",
	ErrNotSeries:             "not_series",
	ErrDrawNotAllowed:        "draw_not_allowed",
	ErrSeriesInProgress:      "series_in_progress",
	ErrRoundNotClosed:        "round_not_closed",
	ErrNotSwiss:              "not_swiss",
	ErrAlreadyGenerated:      "already_generated",
	ErrNotStarted:            "not_started",
	ErrNotEnoughParticipants: "not_enough_participants",
	ErrUnknownParticipant:    "unknown_participant",
	ErrInvalidFormat:         "invalid_format",
	ErrInvalidBestOf:         "invalid_best_of",
}

// ValidationError is a rejected request. Nothing was written.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func reject(err error) error {
	reason, ok := reasons[err]
	if !ok {
		reason = "invalid"
	}
	return &ValidationError{Reason: reason, Err: err}
}

func notFound(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, ErrNotFound, err)
}
