// Package clock abstracts the current time so retention decisions are
// deterministic under test.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}
