package health

import "context"

// StatePinger checks that the quota state location is usable.
type StatePinger interface {
	Ping(ctx context.Context) error
}
