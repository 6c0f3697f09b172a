package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

// createdAtLayout parses both the millisecond timestamps written by the
// migration default and the second-resolution CURRENT_TIMESTAMP of older files.
const createdAtLayout = "2006-01-02 15:04:05.999999999"

var ErrNotFound = errors.New("expense not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath and
// applies pending migrations. Opening an existing, initialized file is not an error.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "SQLite repository ready", "path", dbPath)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Add inserts one expense. The amount and category are stored as given;
// callers validate before calling.
func (r *SQLiteRepository) Add(ctx context.Context, e core.NewExpense) (int64, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Amount:   e.Amount.Float(),
		Category: string(e.Category),
		Date:     e.Date.String(),
		Notes:    nullString(e.Notes),
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"amount", row.Amount,
		"category", row.Category,
		"date", row.Date)

	return row.ID, nil
}

// AddRaw accepts loosely typed input: date may be a YYYY-MM-DD string,
// a time.Time or a core.Date, and is normalized before insertion.
func (r *SQLiteRepository) AddRaw(ctx context.Context, amount float64, category string, date any, notes *string) (int64, error) {
	d, err := normalizeDate(date)
	if err != nil {
		return 0, err
	}
	e := core.NewExpense{
		Amount:   core.MoneyFromFloat(amount),
		Category: core.Category(category),
		Date:     d,
	}
	if notes != nil {
		e.Notes = *notes
	}
	return r.Add(ctx, e)
}

// FetchAll returns every expense, newest date first and, within a date,
// most recently entered first. An empty table yields an empty slice.
func (r *SQLiteRepository) FetchAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCore(row)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// GetExpense retrieves a single expense by ID
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return toCore(row)
}

// Count returns the number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func toCore(row Expense) (core.Expense, error) {
	raw := row.Date
	if len(raw) > len(core.DateLayout) {
		raw = raw[:len(core.DateLayout)]
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", row.ID, err)
	}

	var createdAt time.Time
	if row.CreatedAt != "" {
		createdAt, err = time.Parse(createdAtLayout, strings.Replace(row.CreatedAt, "T", " ", 1))
		if err != nil {
			return core.Expense{}, fmt.Errorf("expense %d: parse created_at %q: %w", row.ID, row.CreatedAt, err)
		}
	}

	return core.Expense{
		ID:        row.ID,
		Amount:    core.MoneyFromFloat(row.Amount),
		Category:  core.Category(row.Category),
		Date:      d,
		Notes:     row.Notes.String,
		CreatedAt: createdAt,
	}, nil
}

func normalizeDate(v any) (core.Date, error) {
	switch d := v.(type) {
	case core.Date:
		return d, d.Validate()
	case time.Time:
		if d.IsZero() {
			return core.Date{}, core.ErrInvalidDate
		}
		return core.DateOf(d), nil
	case string:
		return core.ParseDate(d)
	default:
		return core.Date{}, fmt.Errorf("%w: unsupported type %T", core.ErrInvalidDate, v)
	}
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
