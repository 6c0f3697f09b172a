package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"$50", 5000, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.١", 0, false}, // Arabic-Indic digit
		{"1.５", 0, false}, // fullwidth digit
		{"١", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m       Money
		plain   string
		display string
	}{
		{Money{Cents: 7000}, "70.00", "$70.00"},
		{Money{Cents: 5}, "0.05", "$0.05"},
		{Money{Cents: 123456789}, "1234567.89", "$1,234,567.89"},
		{Money{Cents: -1050}, "-10.50", "-$10.50"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.plain {
			t.Errorf("String(%d) = %q, want %q", tc.m.Cents, got, tc.plain)
		}
		if got := tc.m.Display(); got != tc.display {
			t.Errorf("Display(%d) = %q, want %q", tc.m.Cents, got, tc.display)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if got := MoneyFromFloat(19.99); got.Cents != 1999 {
		t.Fatalf("MoneyFromFloat(19.99) = %d", got.Cents)
	}
	if got := MoneyFromFloat(0.1 + 0.2); got.Cents != 30 {
		t.Fatalf("MoneyFromFloat(0.3) = %d", got.Cents)
	}
	if got := (Money{Cents: 250}).Float(); got != 2.5 {
		t.Fatalf("Float() = %v", got)
	}
}
