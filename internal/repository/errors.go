package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikolayk812/orderledger/internal/domain"
)

const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// toInt4 narrows a quantity for an int4 column, values that would wrap are rejected.
func toInt4(field string, v int) (int32, error) {
	if v > domain.MaxQuantity {
		return 0, fmt.Errorf("%s[%d] exceeds %d: %w", field, v, domain.MaxQuantity, domain.ErrValidation)
	}
	return int32(v), nil
}
