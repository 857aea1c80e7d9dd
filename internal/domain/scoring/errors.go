package scoring

import "errors"

var (
	// ErrUnrecognizedResponse is returned when oracle output matches none of
	// the accepted response shapes.
	ErrUnrecognizedResponse = errors.New("unrecognized scorer response")
	// ErrEmptyResponse is returned when the oracle answers with no text.
	ErrEmptyResponse = errors.New("empty scorer response")
	// ErrNoOracle is returned when an adapter is built without an oracle.
	ErrNoOracle = errors.New("no scoring oracle configured")
)
