package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// CreatedAtLayout is how created_at is written to the sheet.
const CreatedAtLayout = "2006-01-02 15:04:05.000"

// ToRow renders e in Header order.
func ToRow(e core.Expense) []any {
	createdAt := ""
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt.UTC().Format(CreatedAtLayout)
	}
	return []any{e.ID, e.Date.String(), string(e.Category), e.Amount.Float(), e.Notes, createdAt}
}

// FromRow parses a row in Header order. Values may arrive as strings or numbers
// depending on how the sheet formatted them. ok is false for header or blank rows.
func FromRow(row []any) (e core.Expense, ok bool, err error) {
	cols := toStrings(row)
	if len(cols) == 0 || cols[0] == "" {
		return core.Expense{}, false, nil
	}
	id, perr := strconv.ParseInt(cols[0], 10, 64)
	if perr != nil {
		if strings.EqualFold(cols[0], Header[0]) {
			return core.Expense{}, false, nil
		}
		return core.Expense{}, false, fmt.Errorf("row id %q: %w", cols[0], perr)
	}

	date, err := core.ParseDate(safeGet(cols, 1))
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("row %d: %w", id, err)
	}
	cents, aok := parseAmountToCents(safeGet(cols, 3))
	if !aok {
		return core.Expense{}, false, fmt.Errorf("row %d: amount %q", id, safeGet(cols, 3))
	}

	e = core.Expense{
		ID:       id,
		Date:     date,
		Category: core.Category(safeGet(cols, 2)),
		Amount:   core.Money{Cents: cents},
		Notes:    safeGet(cols, 4),
	}
	if s := safeGet(cols, 5); s != "" {
		if t, terr := time.Parse(CreatedAtLayout, s); terr == nil {
			e.CreatedAt = t
		}
	}
	return e, true, nil
}

// ParseID reads the id column of a row. ok is false for header or blank rows.
func ParseID(row []any) (int64, bool) {
	cols := toStrings(row)
	if len(cols) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	return id, err == nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts "12.5", "12,50" and numbers the API returned as float.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return core.MoneyFromFloat(f).Cents, true
}
