package health

import "context"

// DBPinger checks database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// BoundaryChecker verifies the municipal boundary is loaded and usable.
type BoundaryChecker interface {
	HealthCheck(ctx context.Context) error
}
