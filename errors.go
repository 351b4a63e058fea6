package ddns

import (
	"errors"
	"fmt"
)

// ErrRecordCount is returned when a provider lookup does not find exactly one
// A record for the domain. Updating a domain with zero or many A records
// would require guessing which record the operator meant.
var ErrRecordCount = errors.New("expected exactly one A record")

// StatusError is returned when an external service responds with a
// non-success HTTP status code.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}
