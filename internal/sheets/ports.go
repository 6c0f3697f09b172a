// Package sheets defines the ports of the spreadsheet mirror.
package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Header is the column layout of the mirror sheet.
var Header = []string{"id", "date", "category", "amount", "notes", "created_at"}

// Ports for outbound adapters.
type (
	// ExpenseWriter appends one expense as a row and returns a row reference.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// MirrorIndex reports which expense ids already have a row, so a redelivered
	// event does not append a duplicate.
	MirrorIndex interface {
		MirroredIDs(ctx context.Context) (map[int64]struct{}, error)
	}

	// ExpenseLister reads the mirrored rows back.
	ExpenseLister interface {
		List(ctx context.Context) ([]core.Expense, error)
	}

	// Mirror is everything the worker needs from a backend.
	Mirror interface {
		ExpenseWriter
		MirrorIndex
		ExpenseLister
	}
)
