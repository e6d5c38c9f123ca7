package StatusBoard

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("item not found")
)

// Accessor tells the board how to read and write the fields it cares about.
// SetStatus returns the updated copy; the board never mutates items in place.
type Accessor[T any] struct {
	ID        func(T) uint
	Status    func(T) string
	SetStatus func(T, string) T
}

// PersistFunc stores the new status of one record.
type PersistFunc func(ctx context.Context, id uint, status string) error

// Column is one status lane of the board, in load order.
type Column[T any] struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Items  []T    `json:"items"`
}

// Board groups records into fixed status columns.
// It is a per-request value and is not safe for concurrent use.
type Board[T any] struct {
	statuses []string
	items    []T
	acc      Accessor[T]
}

func New[T any](statuses []string, items []T, acc Accessor[T]) *Board[T] {
	return &Board[T]{
		statuses: slices.Clone(statuses),
		items:    slices.Clone(items),
		acc:      acc,
	}
}

// Valid reports whether status is one of the board's columns.
func (b *Board[T]) Valid(status string) bool {
	return slices.Contains(b.statuses, status)
}

func (b *Board[T]) Statuses() []string {
	return slices.Clone(b.statuses)
}

func (b *Board[T]) Items() []T {
	return slices.Clone(b.items)
}

// Columns partitions the items by status. Items whose status is not a
// column are left off the board.
func (b *Board[T]) Columns() []Column[T] {
	columns := make([]Column[T], len(b.statuses))
	index := make(map[string]int, len(b.statuses))
	for i, status := range b.statuses {
		columns[i] = Column[T]{Status: status, Items: []T{}}
		index[status] = i
	}
	for _, item := range b.items {
		i, ok := index[b.acc.Status(item)]
		if !ok {
			continue
		}
		columns[i].Items = append(columns[i].Items, item)
		columns[i].Count++
	}
	return columns
}

func (b *Board[T]) find(id uint) int {
	for i, item := range b.items {
		if b.acc.ID(item) == id {
			return i
		}
	}
	return -1
}

// Move sets the status of item id to target and persists it.
//
// An invalid target or unknown id returns ErrInvalidStatus or ErrNotFound.
// Moving to the current status returns false with no persist call.
// The new status is applied before persist runs; if persist fails the board
// is restored to its exact pre-move state and the error is returned.
func (b *Board[T]) Move(ctx context.Context, id uint, target string, persist PersistFunc) (bool, error) {
	if !b.Valid(target) {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	i := b.find(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if b.acc.Status(b.items[i]) == target {
		return false, nil
	}

	snapshot := slices.Clone(b.items)
	b.items[i] = b.acc.SetStatus(b.items[i], target)

	if err := persist(ctx, id, target); err != nil {
		b.items = snapshot
		return false, fmt.Errorf("persist status of %d: %w", id, err)
	}
	return true, nil
}
