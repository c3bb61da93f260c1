package memstore

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

// table is a versioned key/value map. Every mutation of one key runs inside
// xsync's per-bucket Compute, so writers of different keys never contend.
type table[T any] struct {
	entity     string
	rows       *xsync.MapOf[string, T]
	clone      func(T) T
	version    func(T) int64
	setVersion func(T, int64)
}

func newTable[T any](entity string, clone func(T) T, version func(T) int64, setVersion func(T, int64)) *table[T] {
	return &table[T]{
		entity:     entity,
		rows:       xsync.NewMapOf[string, T](),
		clone:      clone,
		version:    version,
		setVersion: setVersion,
	}
}

func (t *table[T]) get(key string) (T, error) {
	v, ok := t.rows.Load(key)
	if !ok {
		var zero T
		return zero, apperrors.NotFound(t.entity, key)
	}
	return t.clone(v), nil
}

// create stores v at version 1 unless key exists.
func (t *table[T]) create(key string, v T) error {
	t.setVersion(v, 1)
	if _, loaded := t.rows.LoadOrStore(key, t.clone(v)); loaded {
		t.setVersion(v, 0)
		return apperrors.ErrAlreadyExists
	}
	return nil
}

// put stores v unconditionally, bumping the version.
func (t *table[T]) put(key string, v T) {
	t.rows.Compute(key, func(old T, loaded bool) (T, bool) {
		next := int64(1)
		if loaded {
			next = t.version(old) + 1
		}
		t.setVersion(v, next)
		return t.clone(v), false
	})
}

// cas replaces the row only when its version equals expected.
func (t *table[T]) cas(key string, v T, expected int64) error {
	var err error
	t.rows.Compute(key, func(old T, loaded bool) (T, bool) {
		if !loaded {
			err = apperrors.NotFound(t.entity, key)
			return old, true
		}
		if t.version(old) != expected {
			err = apperrors.ErrVersionConflict
			return old, false
		}
		t.setVersion(v, expected+1)
		return t.clone(v), false
	})
	return err
}

// list returns clones of every row matching keep, ordered by key.
func (t *table[T]) list(keep func(T) bool) []T {
	type row struct {
		key string
		val T
	}
	var rows []row
	t.rows.Range(func(key string, v T) bool {
		if keep == nil || keep(v) {
			rows = append(rows, row{key, t.clone(v)})
		}
		return true
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.val
	}
	return out
}
