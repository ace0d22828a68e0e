// Package counters holds named monotonically increasing sequences. Values are
// allocated inside the caller's transaction so a rolled-back transition
// never consumes one.
package counters

import "context"

// ApplicationID is the sequence application ids are drawn from; it starts at 0.
const ApplicationID = "application_id"

type Repository interface {
	// Peek returns the value the next Allocate would return.
	Peek(ctx context.Context, name string) (uint64, error)
	Allocate(ctx context.Context, name string) (uint64, error)
}
