package availability

import "errors"

// ErrDesignerNotFound is returned by a CommitmentSource when a designer name
// has no match in the scheduling system.
var ErrDesignerNotFound = errors.New("designer not found in scheduling system")
