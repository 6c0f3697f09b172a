package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// Expense mirrors one row of the expenses table.
type Expense struct {
	ID        int64
	Amount    float64
	Category  string
	Date      string
	Notes     sql.NullString
	CreatedAt string
}

type CreateExpenseParams struct {
	Amount   float64
	Category string
	Date     string
	Notes    sql.NullString
}

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (amount, category, date, notes)
VALUES (?, ?, ?, ?)
RETURNING id, amount, category, date, notes, created_at
`

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Amount,
		arg.Category,
		arg.Date,
		arg.Notes,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Amount,
		&i.Category,
		&i.Date,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const listExpenses = `-- name: ListExpenses :many
SELECT id, amount, category, date, notes, created_at
FROM expenses
ORDER BY date DESC, created_at DESC, id DESC
`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Amount,
			&i.Category,
			&i.Date,
			&i.Notes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `-- name: GetExpense :one
SELECT id, amount, category, date, notes, created_at
FROM expenses
WHERE id = ?
`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, id)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Amount,
		&i.Category,
		&i.Date,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const countExpenses = `-- name: CountExpenses :one
SELECT COUNT(*) FROM expenses
`

func (q *Queries) CountExpenses(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countExpenses)
	var count int64
	err := row.Scan(&count)
	return count, err
}
