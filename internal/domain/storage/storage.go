// Package storage holds the persistence contract shared by every store
// backend: versioned compare-and-swap records and an optional transaction
// boundary.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

// DefaultCASAttempts bounds optimistic retries on a single record.
const DefaultCASAttempts = 8

// Transactor runs fn inside one unit of work. Stores that cannot span
// records atomically run fn directly and report Atomic() == false.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Atomic() bool
}

// Direct is the Transactor of stores without multi-record transactions.
type Direct struct{}

func (Direct) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (Direct) Atomic() bool { return false }

// ErrRetriesExhausted is returned when every compare-and-swap attempt lost.
var ErrRetriesExhausted = errors.New("compare-and-swap retries exhausted")

// RetryCAS runs attempt until it stops failing with ErrVersionConflict.
// attempt must re-read the record on every call.
func RetryCAS(ctx context.Context, attempts int, attempt func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = DefaultCASAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = attempt(ctx)
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
}
