package outbound

import (
	"context"
	"time"
)

// MetricsRecorder defines the interface for recording placement metrics.
type MetricsRecorder interface {
	// RecordOrderPlaced increments the orders counter.
	// status is "success" or the failure kind.
	RecordOrderPlaced(ctx context.Context, status string)

	// RecordPlacementLatency records how long a placement attempt took.
	RecordPlacementLatency(ctx context.Context, duration time.Duration, status string)
}
