package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

type fakeStore struct {
	added   []core.NewExpense
	failAt  int
	fetched []core.Expense
}

func (f *fakeStore) Add(_ context.Context, e core.NewExpense) (int64, error) {
	if f.failAt > 0 && len(f.added)+1 == f.failAt {
		return 0, errors.New("disk full")
	}
	f.added = append(f.added, e)
	return int64(len(f.added)), nil
}

func (f *fakeStore) FetchAll(context.Context) ([]core.Expense, error) {
	return f.fetched, nil
}

type fakePublisher struct {
	ids []int64
	err error
}

func (f *fakePublisher) PublishExpenseCreated(_ context.Context, id int64) error {
	f.ids = append(f.ids, id)
	return f.err
}

func newTestService(store ExpenseStore, opts ...Option) *ExpenseService {
	opts = append([]Option{
		WithLogger(log.Discard()),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() core.Date { return core.NewDate(2024, 6, 30) }),
	}, opts...)
	return NewExpenseService(store, opts...)
}

func TestExpenseService_AddExpense(t *testing.T) {
	valid := core.NewExpense{
		Amount:   core.Money{Cents: 5000},
		Category: core.Food,
		Date:     core.NewDate(2024, 1, 15),
	}

	tests := []struct {
		name      string
		input     core.NewExpense
		wantErr   error
		wantStore int
	}{
		{name: "valid expense is stored", input: valid, wantStore: 1},
		{
			name:    "zero amount rejected",
			input:   core.NewExpense{Amount: core.Money{}, Category: core.Food, Date: valid.Date},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "missing date rejected",
			input:   core.NewExpense{Amount: valid.Amount, Category: core.Food},
			wantErr: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := newTestService(store)

			id, err := svc.AddExpense(context.Background(), tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if !IsValidation(err) {
					t.Errorf("expected a validation error, got %T", err)
				}
				if len(store.added) != 0 {
					t.Errorf("invalid expense reached the store")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != 1 || len(store.added) != tt.wantStore {
				t.Errorf("id = %d, stored = %d", id, len(store.added))
			}
		})
	}
}

func TestExpenseService_PublishFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(store, WithPublisher(pub))

	id, err := svc.AddExpense(context.Background(), core.NewExpense{
		Amount:   core.Money{Cents: 100},
		Category: core.Other,
		Date:     core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("AddExpense returned %v", err)
	}
	if len(pub.ids) != 1 || pub.ids[0] != id {
		t.Errorf("published %v, want [%d]", pub.ids, id)
	}
}

func TestExpenseService_StoreErrorIsWrapped(t *testing.T) {
	svc := newTestService(&fakeStore{failAt: 1})
	_, err := svc.AddExpense(context.Background(), core.NewExpense{
		Amount: core.Money{Cents: 100}, Category: core.Food, Date: core.NewDate(2024, 3, 1),
	})
	if err == nil || IsValidation(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestExpenseService_AddDemoBatch(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	n, err := svc.AddDemoBatch(context.Background(), 0)
	if err != nil {
		t.Fatalf("AddDemoBatch: %v", err)
	}
	if n != DefaultDemoBatchSize || len(store.added) != DefaultDemoBatchSize {
		t.Fatalf("inserted %d (stored %d), want %d", n, len(store.added), DefaultDemoBatchSize)
	}

	today := core.NewDate(2024, 6, 30)
	oldest := today.AddDays(-365)
	for i, e := range store.added {
		if e.Amount.Cents < 500 || e.Amount.Cents > 80000 {
			t.Errorf("row %d amount %s out of range", i, e.Amount)
		}
		if !e.Category.Known() {
			t.Errorf("row %d category %q not in the fixed set", i, e.Category)
		}
		if e.Date.Before(oldest) || e.Date.After(today) {
			t.Errorf("row %d date %s out of range", i, e.Date)
		}
		if e.Notes != DemoNote {
			t.Errorf("row %d notes %q", i, e.Notes)
		}
	}
}

func TestExpenseService_AddDemoBatchStopsOnError(t *testing.T) {
	store := &fakeStore{failAt: 4}
	svc := newTestService(store)

	n, err := svc.AddDemoBatch(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}
}

func TestExpenseService_AddDemoBatchHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := newTestService(&fakeStore{}).AddDemoBatch(ctx, 5)
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Errorf("n = %d, err = %v", n, err)
	}
}
