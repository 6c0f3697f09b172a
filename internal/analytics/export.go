package analytics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"expensetracker/internal/core"
)

// CreatedAtLayout is how created_at is written to CSV.
const CreatedAtLayout = "2006-01-02 15:04:05.000"

// CSVHeader is the exported column order.
var CSVHeader = []string{"id", "amount", "category", "date", "notes", "created_at"}

var ErrBadCSV = errors.New("malformed expenses csv")

// WriteCSV serializes records, header first, in the order given.
func WriteCSV(w io.Writer, records []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range records {
		createdAt := ""
		if !e.CreatedAt.IsZero() {
			createdAt = e.CreatedAt.UTC().Format(CreatedAtLayout)
		}
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.Amount.String(),
			string(e.Category),
			e.Date.String(),
			e.Notes,
			createdAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses output produced by WriteCSV.
func ReadCSV(r io.Reader) ([]core.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadCSV, err)
	}
	for i, h := range CSVHeader {
		if header[i] != h {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadCSV, i, header[i], h)
		}
	}

	out := []core.Expense{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadCSV, err)
		}
		e, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRow(row []string) (core.Expense, error) {
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: id %q", ErrBadCSV, row[0])
	}
	amount, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: amount %q", ErrBadCSV, row[1])
	}
	date, err := core.ParseDate(row[3])
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", ErrBadCSV, err)
	}
	var createdAt time.Time
	if row[5] != "" {
		createdAt, err = time.Parse(CreatedAtLayout, row[5])
		if err != nil {
			return core.Expense{}, fmt.Errorf("%w: created_at %q", ErrBadCSV, row[5])
		}
	}
	return core.Expense{
		ID:        id,
		Amount:    core.MoneyFromFloat(amount),
		Category:  core.Category(row[2]),
		Date:      date,
		Notes:     row[4],
		CreatedAt: createdAt,
	}, nil
}
