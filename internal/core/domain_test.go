package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(NewDate(2024, 1, 15)) {
		t.Fatalf("got %v", d)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("String() = %q", d.String())
	}
	for _, bad := range []string{"", "15/01/2024", "2024-13-01", "2024-02-30"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestDateOfDropsClock(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	got := DateOf(time.Date(2024, 3, 10, 23, 30, 0, 0, loc))
	if !got.Equal(NewDate(2024, 3, 10)) {
		t.Fatalf("DateOf = %v, want 2024-03-10", got)
	}
	if got.AddDays(-30).String() != "2024-02-09" {
		t.Fatalf("AddDays(-30) = %v", got.AddDays(-30))
	}
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory(" food ")
	if err != nil || got != Food {
		t.Fatalf("ParseCategory(food) = %q, %v", got, err)
	}
	if _, err := ParseCategory(""); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if _, err := ParseCategory("Groceries"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if Category("Groceries").Known() {
		t.Fatal("Groceries should not be known")
	}
	for _, c := range Categories {
		if !c.Known() {
			t.Fatalf("%s should be known", c)
		}
	}
}

func TestNewExpenseValidate(t *testing.T) {
	good := NewExpense{
		Amount:   Money{Cents: 5000},
		Category: Food,
		Date:     NewDate(2024, 1, 15),
		Notes:    "lunch",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Categories outside the fixed set are tolerated.
	legacy := good
	legacy.Category = "Groceries"
	if err := legacy.Validate(); err != nil {
		t.Fatalf("expected ok for legacy category, got %v", err)
	}

	bads := []struct {
		e     NewExpense
		field string
		err   error
	}{
		{NewExpense{Amount: Money{Cents: 0}, Category: Food, Date: NewDate(2024, 1, 1)}, "amount", ErrInvalidAmount},
		{NewExpense{Amount: Money{Cents: -100}, Category: Food, Date: NewDate(2024, 1, 1)}, "amount", ErrInvalidAmount},
		{NewExpense{Amount: Money{Cents: 1}, Category: Food}, "date", ErrInvalidDate},
		{NewExpense{Amount: Money{Cents: 1}, Category: "  ", Date: NewDate(2024, 1, 1)}, "category", ErrEmptyCategory},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
		if verr.Field != tc.field || !errors.Is(err, tc.err) {
			t.Fatalf("case %d: got field=%s err=%v", i, verr.Field, err)
		}
	}
}
