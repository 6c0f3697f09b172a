package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"expensetracker/internal/amqp"
	"expensetracker/internal/analytics"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

// categoryList collects repeated -category flags.
type categoryList []core.Category

func (c *categoryList) String() string {
	if c == nil {
		return ""
	}
	parts := make([]string, len(*c))
	for i, cat := range *c {
		parts[i] = string(cat)
	}
	return strings.Join(parts, ",")
}

// Set keeps unknown names verbatim so rows stored under them stay selectable.
func (c *categoryList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.ErrEmptyCategory
	}
	if cat, err := core.ParseCategory(v); err == nil {
		*c = append(*c, cat)
		return nil
	}
	*c = append(*c, core.Category(v))
	return nil
}

// filterFlags are shared by list and export.
type filterFlags struct {
	start      string
	end        string
	search     string
	categories categoryList
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.start, "start", "", "Earliest date to include (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "Latest date to include (YYYY-MM-DD)")
	fs.StringVar(&f.search, "q", "", "Case-insensitive text to find in notes")
	fs.Var(&f.categories, "category", "Category to include (repeatable)")
}

func (f *filterFlags) filter() (analytics.Filter, error) {
	var out analytics.Filter
	var err error
	if f.start != "" {
		if out.Start, err = core.ParseDate(f.start); err != nil {
			return out, fmt.Errorf("-start: %w", err)
		}
	}
	if f.end != "" {
		if out.End, err = core.ParseDate(f.end); err != nil {
			return out, fmt.Errorf("-end: %w", err)
		}
	}
	if !out.Start.IsZero() && !out.End.IsZero() && out.Start.After(out.End) {
		return out, analytics.ErrInvalidRange
	}
	if len(f.categories) > 0 {
		out.Categories = []core.Category(f.categories)
	}
	out.Search = f.search
	return out, nil
}

func (a *app) newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	db := fs.String("db", a.cfg.SQLiteDBPath, "Path to the SQLite database")
	return fs, db
}

// parse returns a non-negative exit code when the command should stop.
func (a *app) parse(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	return -1
}

func (a *app) openStore(ctx context.Context, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(ctx, dbPath)
	if err != nil {
		a.logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase,
			"path", dbPath)
		return nil, err
	}
	return repo, nil
}

// newService wires the store and, when AMQP is configured, the event publisher.
// The returned func releases the publisher.
func (a *app) newService(store services.ExpenseStore) (*services.ExpenseService, func()) {
	opts := []services.Option{services.WithLogger(a.logger), services.WithClock(a.today)}
	closer := func() {}

	if a.cfg.MirrorEnabled() {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
		if err != nil {
			a.logger.Warn("AMQP unavailable, expense events will not be published",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			opts = append(opts, services.WithPublisher(client))
			closer = func() { client.Close() }
		}
	}
	return services.NewExpenseService(store, opts...), closer
}

func (a *app) fail(msg string, err error) int {
	fmt.Fprintf(a.stderr, "Error: %s: %v\n", msg, err)
	return exitFailure
}

func (a *app) usageError(err error) int {
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return exitUsage
}

func (a *app) runInit(ctx context.Context, args []string) int {
	fs, db := a.newFlagSet("init")
	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "Usage: expensectl init [-db path]")
		fs.PrintDefaults()
	}
	if code := a.parse(fs, args); code >= 0 {
		return code
	}

	repo, err := a.openStore(ctx, *db)
	if err != nil {
		return a.fail("open database", err)
	}
	defer repo.Close()

	n, err := repo.Count(ctx)
	if err != nil {
		return a.fail("count expenses", err)
	}
	fmt.Fprintf(a.stdout, "Database ready at %s (%d records)\n", *db, n)
	return exitOK
}

func (a *app) runAdd(ctx context.Context, args []string) int {
	fs, db := a.newFlagSet("add")
	amount := fs.String("amount", "", "Amount in dollars, e.g. 12.50 (required)")
	category := fs.String("category", "", "One of: "+categoryNames()+" (required)")
	date := fs.String("date", "", "Expense date (YYYY-MM-DD), defaults to today")
	notes := fs.String("notes", "", "Optional notes")
	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "Usage: expensectl add -amount 12.50 -category Food [-date YYYY-MM-DD] [-notes text]")
		fs.PrintDefaults()
	}
	if code := a.parse(fs, args); code >= 0 {
		return code
	}

	e, err := a.newExpense(*amount, *category, *date, *notes)
	if err != nil {
		return a.usageError(err)
	}

	repo, err := a.openStore(ctx, *db)
	if err != nil {
		return a.fail("open database", err)
	}
	defer repo.Close()

	svc, closeSvc := a.newService(repo)
	defer closeSvc()

	id, err := svc.AddExpense(ctx, e)
	if err != nil {
		if services.IsValidation(err) {
			return a.usageError(err)
		}
		return a.fail("save expense", err)
	}
	fmt.Fprintf(a.stdout, "Expense #%d saved: %s (%s, %s)\n", id, e.Amount.Display(), e.Category, e.Date)
	return exitOK
}

// newExpense builds a validated expense from flag values. Only the fixed
// categories are accepted here, matching the web form.
func (a *app) newExpense(amount, category, date, notes string) (core.NewExpense, error) {
	var e core.NewExpense

	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return e, &core.ValidationError{Field: "amount", Err: err}
	}
	e.Amount = core.Money{Cents: cents}

	if e.Category, err = core.ParseCategory(category); err != nil {
		return e, &core.ValidationError{Field: "category", Err: err}
	}

	e.Date = a.today()
	if strings.TrimSpace(date) != "" {
		if e.Date, err = core.ParseDate(date); err != nil {
			return e, &core.ValidationError{Field: "date", Err: err}
		}
	}

	e.Notes = strings.TrimSpace(notes)
	return e, e.Validate()
}

func categoryNames() string {
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func (a *app) runList(ctx context.Context, args []string) int {
	fs, db := a.newFlagSet("list")
	var ff filterFlags
	ff.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "Usage: expensectl list [-start date] [-end date] [-category name ...] [-q text]")
		fs.PrintDefaults()
	}
	if code := a.parse(fs, args); code >= 0 {
		return code
	}

	records, code := a.filtered(ctx, *db, ff)
	if code >= 0 {
		return code
	}
	if err := printRecords(a.stdout, records); err != nil {
		return a.fail("write output", err)
	}
	return exitOK
}

func (a *app) runExport(ctx context.Context, args []string) int {
	fs, db := a.newFlagSet("export")
	var ff filterFlags
	ff.register(fs)
	out := fs.String("o", "-", "Output file, '-' for stdout")
	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "Usage: expensectl export [-o file] [-start date] [-end date] [-category name ...] [-q text]")
		fs.PrintDefaults()
	}
	if code := a.parse(fs, args); code >= 0 {
		return code
	}

	records, code := a.filtered(ctx, *db, ff)
	if code >= 0 {
		return code
	}

	var w io.Writer = a.stdout
	if *out != "-" && *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return a.fail("create output file", err)
		}
		defer f.Close()
		w = f
	}
	if err := analytics.WriteCSV(w, records); err != nil {
		return a.fail("write csv", err)
	}
	a.logger.Info("Expenses exported",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(records),
		"output", *out)
	return exitOK
}

// filtered fetches every record and applies the filter flags. A non-negative
// code means the command should exit with it.
func (a *app) filtered(ctx context.Context, dbPath string, ff filterFlags) ([]core.Expense, int) {
	f, err := ff.filter()
	if err != nil {
		return nil, a.usageError(err)
	}

	repo, err := a.openStore(ctx, dbPath)
	if err != nil {
		return nil, a.fail("open database", err)
	}
	defer repo.Close()

	all, err := repo.FetchAll(ctx)
	if err != nil {
		return nil, a.fail("fetch expenses", err)
	}
	return analytics.ComputeView(all, f), -1
}

func printRecords(w io.Writer, records []core.Expense) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tNOTES")
	for _, e := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, e.Amount.Display(), e.Notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d records, total %s\n", len(records), analytics.Sum(records).Display())
	return err
}

func (a *app) runSeed(ctx context.Context, args []string) int {
	fs, db := a.newFlagSet("seed")
	n := fs.Int("n", a.cfg.DemoBatchSize, "Number of demo expenses to insert")
	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "Usage: expensectl seed [-n count]")
		fs.PrintDefaults()
	}
	if code := a.parse(fs, args); code >= 0 {
		return code
	}
	if *n < 1 {
		return a.usageError(fmt.Errorf("-n must be at least 1, got %d", *n))
	}

	repo, err := a.openStore(ctx, *db)
	if err != nil {
		return a.fail("open database", err)
	}
	defer repo.Close()

	svc, closeSvc := a.newService(repo)
	defer closeSvc()

	added, err := svc.AddDemoBatch(ctx, *n)
	if err != nil {
		fmt.Fprintf(a.stdout, "Added %d demo expenses before failing\n", added)
		return a.fail("seed demo data", err)
	}
	fmt.Fprintf(a.stdout, "Added %d demo expenses\n", added)
	return exitOK
}

func (a *app) runDashboard(ctx context.Context, args []string) int {
	fs, db := a.newFlagSet("dashboard")
	timeframe := fs.String("timeframe", string(analytics.Last30Days), "One of: last30, last90, ytd, all, custom")
	start := fs.String("start", "", "Custom range start (YYYY-MM-DD)")
	end := fs.String("end", "", "Custom range end (YYYY-MM-DD)")
	asJSON := fs.Bool("json", false, "Print the dashboard as JSON")
	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "Usage: expensectl dashboard [-timeframe name] [-start date -end date] [-json]")
		fs.PrintDefaults()
	}
	if code := a.parse(fs, args); code >= 0 {
		return code
	}

	tf, err := analytics.ParseTimeframe(*timeframe)
	if err != nil {
		return a.usageError(err)
	}
	var custom analytics.Range
	if tf == analytics.Custom {
		if *start != "" {
			if custom.Start, err = core.ParseDate(*start); err != nil {
				return a.usageError(fmt.Errorf("-start: %w", err))
			}
		}
		if *end != "" {
			if custom.End, err = core.ParseDate(*end); err != nil {
				return a.usageError(fmt.Errorf("-end: %w", err))
			}
		}
	}

	repo, err := a.openStore(ctx, *db)
	if err != nil {
		return a.fail("open database", err)
	}
	defer repo.Close()

	all, err := repo.FetchAll(ctx)
	if err != nil {
		return a.fail("fetch expenses", err)
	}

	d, err := analytics.BuildDashboard(all, tf, custom)
	switch {
	case errors.Is(err, analytics.ErrNoData):
		fmt.Fprintln(a.stdout, "No expenses recorded yet. Add one with 'expensectl add' or run 'expensectl seed'.")
		return exitOK
	case errors.Is(err, analytics.ErrInvalidRange):
		return a.usageError(err)
	case err != nil:
		return a.fail("build dashboard", err)
	}

	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newDashboardOutput(d)); err != nil {
			return a.fail("write output", err)
		}
		return exitOK
	}
	if err := printDashboard(a.stdout, d); err != nil {
		return a.fail("write output", err)
	}
	return exitOK
}

type bucketOutput struct {
	Label string `json:"label"`
	Total string `json:"total"`
}

type categoryOutput struct {
	Category string  `json:"category"`
	Total    string  `json:"total"`
	Share    float64 `json:"share"`
}

type dashboardOutput struct {
	Timeframe  string           `json:"timeframe"`
	Start      string           `json:"start"`
	End        string           `json:"end"`
	Total      string           `json:"total"`
	Last30Days string           `json:"last_30_days"`
	Records    int              `json:"records"`
	Monthly    []bucketOutput   `json:"monthly"`
	Weekly     []bucketOutput   `json:"weekly"`
	Categories []categoryOutput `json:"categories"`
}

func newDashboardOutput(d analytics.Dashboard) dashboardOutput {
	out := dashboardOutput{
		Timeframe:  string(d.Timeframe),
		Start:      d.Range.Start.String(),
		End:        d.Range.End.String(),
		Total:      d.Total.String(),
		Last30Days: d.Last30Days.String(),
		Records:    d.Records,
		Monthly:    make([]bucketOutput, 0, len(d.Monthly)),
		Weekly:     make([]bucketOutput, 0, len(d.Weekly)),
		Categories: make([]categoryOutput, 0, len(d.Categories)),
	}
	for _, b := range d.Monthly {
		out.Monthly = append(out.Monthly, bucketOutput{Label: b.Label, Total: b.Total.String()})
	}
	for _, b := range d.Weekly {
		out.Weekly = append(out.Weekly, bucketOutput{Label: b.Label, Total: b.Total.String()})
	}
	for _, c := range d.Categories {
		out.Categories = append(out.Categories, categoryOutput{
			Category: string(c.Category),
			Total:    c.Total.String(),
			Share:    c.Share,
		})
	}
	return out
}

func printDashboard(w io.Writer, d analytics.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Timeframe\t%s (%s)\n", d.Timeframe.Label(), d.Range)
	fmt.Fprintf(tw, "Total spent\t%s\n", d.Total.Display())
	fmt.Fprintf(tw, "Last 30 days\t%s\n", d.Last30Days.Display())
	fmt.Fprintf(tw, "Records\t%d\n", d.Records)

	fmt.Fprintln(tw, "\nMonthly")
	for _, b := range d.Monthly {
		fmt.Fprintf(tw, "  %s\t%s\n", b.Label, b.Total.Display())
	}
	fmt.Fprintln(tw, "\nWeekly")
	for _, b := range d.Weekly {
		fmt.Fprintf(tw, "  %s\t%s\n", b.Label, b.Total.Display())
	}
	fmt.Fprintln(tw, "\nBy category")
	for _, c := range d.Categories {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f%%\n", c.Category, c.Total.Display(), c.Share*100)
	}
	return tw.Flush()
}
