package outbound

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxManager provides transaction lifecycle management across repositories.
// Services use this to coordinate writes that span multiple aggregates.
type TxManager interface {
	// WithTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}
