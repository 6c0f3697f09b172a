// Package services orchestrates expense operations across storage and the
// optional event mirror.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

const (
	// DefaultDemoBatchSize is how many rows AddDemoBatch inserts when asked for none.
	DefaultDemoBatchSize = 60

	DemoNote = "Demo expense"

	demoMinCents = 500
	demoMaxCents = 80000
	demoMaxAge   = 365
)

// ExpenseStore is the persistence the service needs.
type ExpenseStore interface {
	Add(ctx context.Context, e core.NewExpense) (int64, error)
	FetchAll(ctx context.Context) ([]core.Expense, error)
}

// EventPublisher announces stored expenses to the mirror.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, id int64) error
}

// ExpenseService orchestrates expense operations across SQLite and AMQP
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	logger    *log.Logger

	rand  *rand.Rand
	today func() core.Date
}

// Option customises an ExpenseService.
type Option func(*ExpenseService)

// WithPublisher enables expense.created events.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) { s.logger = l.WithComponent(log.ComponentExpense) }
}

// WithRand sets the random source used for demo data.
func WithRand(r *rand.Rand) Option {
	return func(s *ExpenseService) { s.rand = r }
}

// WithClock sets the function returning the current day.
func WithClock(today func() core.Date) Option {
	return func(s *ExpenseService) { s.today = today }
}

func NewExpenseService(store ExpenseStore, opts ...Option) *ExpenseService {
	seed := uint64(time.Now().UnixNano())
	s := &ExpenseService{
		store:  store,
		logger: log.FromContext(context.Background()).WithComponent(log.ComponentExpense),
		rand:   rand.New(rand.NewPCG(seed, seed>>1)),
		today:  core.Today,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExpense validates e, stores it and announces it. A failed announcement is
// logged and does not fail the call.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.NewExpense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.Add(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}
	log.LogExpenseCreated(ctx, s.logger, id, e.Amount.Cents, e.Category.String(), e.Date.String())

	s.publish(ctx, id)
	return id, nil
}

// FetchAll returns every stored expense, newest first.
func (s *ExpenseService) FetchAll(ctx context.Context) ([]core.Expense, error) {
	records, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	return records, nil
}

// AddDemoBatch inserts count synthetic expenses through the regular add path.
// count <= 0 selects DefaultDemoBatchSize. It returns how many rows were stored;
// on error the rows stored before the failure remain.
func (s *ExpenseService) AddDemoBatch(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = DefaultDemoBatchSize
	}

	today := s.today()
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		e := core.NewExpense{
			Amount:   core.Money{Cents: demoMinCents + s.rand.Int64N(demoMaxCents-demoMinCents+1)},
			Category: core.Categories[s.rand.IntN(len(core.Categories))],
			Date:     today.AddDays(-s.rand.IntN(demoMaxAge + 1)),
			Notes:    DemoNote,
		}
		if _, err := s.AddExpense(ctx, e); err != nil {
			return i, fmt.Errorf("demo expense %d of %d: %w", i+1, count, err)
		}
	}

	s.logger.InfoContext(ctx, "Demo data generated", log.FieldOperation, log.OpSeed, log.FieldCount, count)
	return count, nil
}

func (s *ExpenseService) publish(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseCreated(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.FieldExpenseID, id, log.FieldError, err)
	}
}

// IsValidation reports whether err is a user input problem rather than a
// storage failure.
func IsValidation(err error) bool {
	var ve *core.ValidationError
	return errors.As(err, &ve)
}
