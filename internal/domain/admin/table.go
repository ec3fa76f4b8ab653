package admin

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
)

// Record is a row an administrator can edit. Fields reports the editable
// columns with ints as int64; Patched returns a copy with changes applied.
type Record[R any] interface {
	RecordID() uint
	Fields() map[string]any
	Patched(changes map[string]any) R
}

var (
	// ErrUnknownRecord is returned for ids that are not in the loaded rows
	ErrUnknownRecord = errors.New("record is not loaded")
	// ErrNotToggleable is returned when toggling a non-boolean column
	ErrNotToggleable = errors.New("field cannot be toggled")
)

// Table is the state of one admin view: the loaded rows plus the
// optimistic edits in flight against them.
type Table[R Record[R]] struct {
	name       string
	schema     *Schema
	repo       Repository[R]
	controller *optimistic.Controller[uint]
	logger     *logrus.Logger

	mu         sync.Mutex
	rows       []R
	mounted    bool
	generation uint64
}

// NewTable creates an unmounted table
func NewTable[R Record[R]](name string, schema *Schema, repo Repository[R], logger *logrus.Logger, opts ...optimistic.Option) *Table[R] {
	return &Table[R]{
		name:       name,
		schema:     schema,
		repo:       repo,
		controller: optimistic.NewController[uint]("admin_"+name, opts...),
		logger:     logger,
	}
}

// Name returns the table name
func (t *Table[R]) Name() string { return t.name }

// Mount bulk-loads the rows. A load that returns after Unmount, after a
// newer Mount, or after ctx ended is dropped.
func (t *Table[R]) Mount(ctx context.Context) ([]R, error) {
	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.mounted = true
	t.mu.Unlock()

	rows, err := t.repo.List(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.aliveLocked(gen) || ctx.Err() != nil {
		return t.copyLocked(), ctx.Err()
	}
	if err != nil {
		t.logger.WithError(err).WithField("table", t.name).Warn("Failed to load admin table")
		return t.copyLocked(), err
	}
	t.rows = rows
	return t.copyLocked(), nil
}

// Unmount drops the rows; pending loads and edits no longer touch state
func (t *Table[R]) Unmount() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.mounted = false
	t.rows = nil
}

// Mounted reports whether the view is mounted
func (t *Table[R]) Mounted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mounted
}

// Rows returns a copy of the loaded rows
func (t *Table[R]) Rows() []R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

// Get returns the loaded row with id
func (t *Table[R]) Get(id uint) (R, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexLocked(id)
	if i < 0 {
		var zero R
		return zero, false
	}
	return t.rows[i], true
}

// Update validates changes, sends only the columns that differ from the
// loaded row and adopts the stored row. An empty diff confirms without a
// round trip.
func (t *Table[R]) Update(ctx context.Context, id uint, changes map[string]any) optimistic.Outcome[R] {
	current, ok := t.Get(id)
	if !ok {
		return optimistic.Invalid(current, ErrUnknownRecord)
	}

	coerced, err := t.schema.Coerce(changes)
	if err != nil {
		return optimistic.Invalid(current, err)
	}

	diff := Diff(current.Fields(), coerced)
	if len(diff) == 0 {
		return optimistic.Outcome[R]{Status: optimistic.StatusConfirmed, Value: current}
	}

	gen := t.gen()
	var previous R
	var index int
	return optimistic.Run(ctx, t.controller, optimistic.Mutation[uint, R]{
		Key: id,
		Apply: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			index = t.indexLocked(id)
			if index < 0 {
				previous = current
				return
			}
			previous = t.rows[index]
			t.rows[index] = previous.Patched(diff)
		},
		Persist: func(ctx context.Context) (R, bool, error) {
			row, err := t.repo.Update(ctx, id, diff)
			return row, err == nil, err
		},
		Commit: func(row R) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if index >= 0 && t.aliveLocked(gen) {
				t.putLocked(row, index)
			}
		},
		Rollback: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if index >= 0 && t.aliveLocked(gen) {
				t.putLocked(previous, index)
			}
			t.warn(id, "Admin update rolled back")
		},
		View: func() R {
			row, _ := t.Get(id)
			return row
		},
	})
}

// Toggle flips a boolean column
func (t *Table[R]) Toggle(ctx context.Context, id uint, column string) optimistic.Outcome[R] {
	current, ok := t.Get(id)
	if !ok {
		return optimistic.Invalid(current, ErrUnknownRecord)
	}
	f, ok := t.schema.Field(column)
	if !ok || f.Type != Bool {
		return optimistic.Invalid(current, ErrNotToggleable)
	}
	value, _ := current.Fields()[column].(bool)
	return t.Update(ctx, id, map[string]any{column: !value})
}

// Delete removes the row locally at once. A failed delete puts the record
// back by id, near its old position when that still exists.
func (t *Table[R]) Delete(ctx context.Context, id uint) optimistic.Outcome[[]R] {
	if _, ok := t.Get(id); !ok {
		return optimistic.Invalid(t.Rows(), ErrUnknownRecord)
	}

	gen := t.gen()
	var previous R
	index := -1
	return optimistic.Run(ctx, t.controller, optimistic.Mutation[uint, []R]{
		Key: id,
		Apply: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			index = t.indexLocked(id)
			if index < 0 {
				return
			}
			previous = t.rows[index]
			t.rows = append(t.rows[:index:index], t.rows[index+1:]...)
		},
		Persist: func(ctx context.Context) ([]R, bool, error) {
			return nil, false, t.repo.Delete(ctx, id)
		},
		Rollback: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if index >= 0 && t.aliveLocked(gen) {
				t.putLocked(previous, index)
			}
			t.warn(id, "Admin delete rolled back")
		},
		View: t.Rows,
	})
}

func (t *Table[R]) gen() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

func (t *Table[R]) aliveLocked(gen uint64) bool {
	return t.mounted && gen == t.generation
}

func (t *Table[R]) indexLocked(id uint) int {
	for i, row := range t.rows {
		if row.RecordID() == id {
			return i
		}
	}
	return -1
}

// putLocked replaces the row with the same id, or inserts it at hint when
// it is no longer present
func (t *Table[R]) putLocked(row R, hint int) {
	if i := t.indexLocked(row.RecordID()); i >= 0 {
		t.rows[i] = row
		return
	}
	if hint < 0 || hint > len(t.rows) {
		hint = len(t.rows)
	}
	t.rows = append(t.rows, row)
	copy(t.rows[hint+1:], t.rows[hint:])
	t.rows[hint] = row
}

func (t *Table[R]) copyLocked() []R {
	out := make([]R, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table[R]) warn(id uint, msg string) {
	t.logger.WithFields(logrus.Fields{
		"table":     t.name,
		"record_id": id,
	}).Warn(msg)
}
