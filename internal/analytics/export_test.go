package analytics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func TestWriteCSV(t *testing.T) {
	records := []core.Expense{{
		ID:        7,
		Amount:    core.Money{Cents: 1250},
		Category:  core.Food,
		Date:      day("2024-01-15"),
		Notes:     "pizza, large",
		CreatedAt: time.Date(2024, 1, 15, 19, 30, 0, 125*int(time.Millisecond), time.UTC),
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "id,amount,category,date,notes,created_at\n" +
		"7,12.50,Food,2024-01-15,\"pizza, large\",2024-01-15 19:30:00.125\n"
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	original := ComputeView(sample(), Filter{})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, original); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if len(got) != len(original) {
		t.Fatalf("got %d rows, want %d", len(got), len(original))
	}
	for i := range original {
		o, g := original[i], got[i]
		if o.ID != g.ID || o.Amount != g.Amount || o.Category != g.Category ||
			!o.Date.Equal(g.Date) || o.Notes != g.Notes || !o.CreatedAt.Equal(g.CreatedAt) {
			t.Errorf("row %d: got %+v, want %+v", i, g, o)
		}
	}
}

func TestWriteCSVEmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "id,amount,category,date,notes,created_at\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"wrong header", "id,value,category,date,notes,created_at\n"},
		{"bad amount", "id,amount,category,date,notes,created_at\n1,abc,Food,2024-01-01,,\n"},
		{"bad date", "id,amount,category,date,notes,created_at\n1,1.00,Food,01/02/2024,,\n"},
		{"short row", "id,amount,category,date,notes,created_at\n1,1.00\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.in)); !errors.Is(err, ErrBadCSV) {
				t.Errorf("err = %v, want ErrBadCSV", err)
			}
		})
	}
}
