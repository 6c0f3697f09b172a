// Package worker copies stored expenses into the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

// ExpenseSource is the read side of the expense store.
type ExpenseSource interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	FetchAll(ctx context.Context) ([]core.Expense, error)
}

// MirrorWorker appends stored expenses to the mirror, at most once per id.
type MirrorWorker struct {
	source ExpenseSource
	mirror sheets.Mirror
	logger *log.Logger
}

func NewMirrorWorker(source ExpenseSource, mirror sheets.Mirror, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExpenseCreated mirrors the expense named by msg. Redelivered messages for
// an id already in the mirror are acknowledged without a second row. Messages
// for ids missing from the store are dropped.
func (w *MirrorWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	mirrored, err := w.mirror.MirroredIDs(ctx)
	if err != nil {
		return fmt.Errorf("read mirror index: %w", err)
	}
	if _, ok := mirrored[msg.ID]; ok {
		w.logger.InfoContext(ctx, "Expense already mirrored", log.FieldExpenseID, msg.ID)
		return nil
	}

	e, err := w.source.GetExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Dropping event for unknown expense", log.FieldExpenseID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	return w.append(ctx, e)
}

// Backfill mirrors every stored expense the mirror does not have yet, oldest
// first. It covers events lost while the broker or the worker was down.
func (w *MirrorWorker) Backfill(ctx context.Context) (int, error) {
	mirrored, err := w.mirror.MirroredIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("read mirror index: %w", err)
	}
	all, err := w.source.FetchAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch expenses: %w", err)
	}
	slices.SortFunc(all, func(a, b core.Expense) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	n := 0
	for _, e := range all {
		if _, ok := mirrored[e.ID]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := w.append(ctx, e); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Backfilled mirror", log.FieldCount, n)
	}
	return n, nil
}

// Drift is the difference between the store and the mirror found by Verify.
type Drift struct {
	Stored   int
	Mirrored int
	// Missing lists stored ids with no mirror row.
	Missing []int64
	// Mismatched lists ids whose mirror row disagrees on amount, category or date.
	Mismatched []int64
}

// Clean reports whether the mirror matches the store.
func (d Drift) Clean() bool {
	return len(d.Missing) == 0 && len(d.Mismatched) == 0
}

// Verify reads the mirror back and compares every row with the stored expense.
// Rows for ids unknown to the store are counted but not reported.
func (w *MirrorWorker) Verify(ctx context.Context) (Drift, error) {
	rows, err := w.mirror.List(ctx)
	if err != nil {
		return Drift{}, fmt.Errorf("read mirror rows: %w", err)
	}
	all, err := w.source.FetchAll(ctx)
	if err != nil {
		return Drift{}, fmt.Errorf("fetch expenses: %w", err)
	}

	mirrored := make(map[int64]core.Expense, len(rows))
	for _, r := range rows {
		mirrored[r.ID] = r
	}

	d := Drift{Stored: len(all), Mirrored: len(rows)}
	for _, e := range all {
		m, ok := mirrored[e.ID]
		switch {
		case !ok:
			d.Missing = append(d.Missing, e.ID)
		case m.Amount != e.Amount || m.Category != e.Category || !m.Date.Equal(e.Date):
			d.Mismatched = append(d.Mismatched, e.ID)
		}
	}
	slices.Sort(d.Missing)
	slices.Sort(d.Mismatched)

	if !d.Clean() {
		w.logger.WarnContext(ctx, "Mirror drift detected",
			"stored", d.Stored,
			"mirrored", d.Mirrored,
			"missing", len(d.Missing),
			"mismatched", len(d.Mismatched))
	}
	return d, nil
}

func (w *MirrorWorker) append(ctx context.Context, e core.Expense) error {
	ref, err := w.mirror.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense %d: %w", e.ID, err)
	}
	w.logger.InfoContext(ctx, "Mirrored expense",
		log.FieldExpenseID, e.ID,
		log.FieldMirrorRef, ref,
		log.FieldOperation, log.OpAppend)
	return nil
}
