// Package memory is an in-process mirror used in development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

var _ ports.Mirror = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Store {
	return &Store{}
}

// Append stores the expense in sheet row form and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", errors.New("append expense: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.ToRow(e))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) MirroredIDs(_ context.Context) (map[int64]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[int64]struct{}, len(s.rows))
	for _, row := range s.rows {
		if id, ok := ports.ParseID(row); ok {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.rows))
	for _, row := range s.rows {
		e, ok, err := ports.FromRow(row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
