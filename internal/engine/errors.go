package engine

import "errors"

var (
	// ErrInsufficientData means a fixture had no model predictions to
	// aggregate. It is fatal for that fixture's ensemble step only;
	// callers keep processing other fixtures.
	ErrInsufficientData = errors.New("no model predictions to aggregate")

	// ErrInvalidBankroll means a negative bankroll was passed to the
	// Kelly sizing. Rejected outright rather than floored to zero.
	ErrInvalidBankroll = errors.New("bankroll must not be negative")
)
