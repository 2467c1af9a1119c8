package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// rollback rolls back the transaction and logs the error if it is not ErrTxClosed.
func rollback(ctx context.Context, tx pgx.Tx, logger *slog.Logger) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.Error("failed to rollback transaction", "error", err)
	}
}

// decimalToNumeric converts a decimal to a string for NUMERIC column storage.
// Postgres's NUMERIC type accepts arbitrary precision numbers as strings.
func decimalToNumeric(d decimal.Decimal) string {
	return d.String()
}

// nullDecimalToNumeric converts a nullable decimal to a NUMERIC argument,
// mapping the null case to SQL NULL.
func nullDecimalToNumeric(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

// numericToDecimal parses a NUMERIC column value read as a string.
func numericToDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	return d, nil
}

// numericToNullDecimal parses a nullable NUMERIC column value.
func numericToNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := numericToDecimal(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// IsSerializationFailure checks for PostgreSQL serialization failures
// (SQLSTATE 40001) and deadlocks (40P01). Both are expected under
// concurrent placements and safe to retry.
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
