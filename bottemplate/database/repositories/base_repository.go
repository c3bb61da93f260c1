package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

type txKey struct{}

// WithTx returns a context whose repository calls run inside tx.
func WithTx(ctx context.Context, tx bun.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (bun.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(bun.Tx)
	return tx, ok
}

// BaseRepository provides common repository functionality
type BaseRepository struct {
	db             *bun.DB
	defaultTimeout time.Duration
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *bun.DB) *BaseRepository {
	return &BaseRepository{
		db:             db,
		defaultTimeout: config.DefaultQueryTimeout,
	}
}

// RepositoryError represents a repository-level error
type RepositoryError struct {
	Operation string
	Entity    string
	Err       error
}

func (re *RepositoryError) Error() string {
	return fmt.Sprintf("repository error during %s for %s: %v", re.Operation, re.Entity, re.Err)
}

func (re *RepositoryError) Unwrap() error {
	return re.Err
}

// NotFoundError represents an entity not found error
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", nfe.Entity, nfe.ID)
}

func (nfe *NotFoundError) Unwrap() error {
	return apperrors.ErrNotFound
}

// ConflictError represents a data conflict error
type ConflictError struct {
	Entity string
	Field  string
	Value  interface{}
}

func (ce *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %v already exists", ce.Entity, ce.Field, ce.Value)
}

func (ce *ConflictError) Unwrap() error {
	return apperrors.ErrAlreadyExists
}

// Conn returns the transaction carried by ctx, or the database itself.
func (br *BaseRepository) Conn(ctx context.Context) bun.IDB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return br.db
}

// WithTimeout creates a context with the default timeout
func (br *BaseRepository) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, br.defaultTimeout)
}

// HandleErrorWithID standardizes error handling with specific ID
func (br *BaseRepository) HandleErrorWithID(operation, entity string, id interface{}, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Entity: entity, ID: id}
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
		return &ConflictError{Entity: entity, Field: "id", Value: id}
	}

	return &RepositoryError{
		Operation: operation,
		Entity:    entity,
		Err:       err,
	}
}

// SelectOneWithTimeout executes a select one query with timeout and error handling
func (br *BaseRepository) SelectOneWithTimeout(ctx context.Context, operation, entity string, id interface{}, query func(context.Context, bun.IDB) error) error {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	err := query(timeoutCtx, br.Conn(ctx))
	return br.HandleErrorWithID(operation, entity, id, err)
}

// SelectWithTimeout executes a list query; an empty result is not an error.
func (br *BaseRepository) SelectWithTimeout(ctx context.Context, operation, entity string, query func(context.Context, bun.IDB) error) error {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	err := query(timeoutCtx, br.Conn(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return br.HandleErrorWithID(operation, entity, "", err)
}

// Insert writes a new row. A primary key clash maps to apperrors.ErrAlreadyExists
// without aborting an enclosing transaction.
func (br *BaseRepository) Insert(ctx context.Context, entity string, id interface{}, model interface{}) error {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	res, err := br.Conn(ctx).NewInsert().
		Model(model).
		On("CONFLICT DO NOTHING").
		Exec(timeoutCtx)
	if err != nil {
		return br.HandleErrorWithID("insert", entity, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ConflictError{Entity: entity, Field: "id", Value: id}
	}
	return nil
}

// UpdateVersioned rewrites the row of model only while its stored version
// equals expected. model must already carry the next version.
func (br *BaseRepository) UpdateVersioned(ctx context.Context, entity string, id interface{}, model interface{}, expected int64) error {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	conn := br.Conn(ctx)
	res, err := conn.NewUpdate().
		Model(model).
		WherePK().
		Where("version = ?", expected).
		Exec(timeoutCtx)
	if err != nil {
		return br.HandleErrorWithID("update", entity, id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	exists, err := conn.NewSelect().Model(model).WherePK().Exists(timeoutCtx)
	if err != nil {
		return br.HandleErrorWithID("update", entity, id, err)
	}
	if !exists {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("%w: %s %v expected version %d", apperrors.ErrVersionConflict, entity, id, expected)
}

// Transaction runs fn with a context carrying one bun transaction. A call
// nested in an open transaction joins it.
func (br *BaseRepository) Transaction(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	return br.db.RunInTx(timeoutCtx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(WithTx(ctx, tx))
	})
}

// GetDB returns the underlying database connection
func (br *BaseRepository) GetDB() *bun.DB {
	return br.db
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
