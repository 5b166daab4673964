package repository

import "errors"

// ErrNoRowsAffected is returned by conditional writes whose WHERE clause
// matched nothing: the row is gone, not owned by the caller, or no longer
// in the expected status.
var ErrNoRowsAffected = errors.New("no rows affected")
