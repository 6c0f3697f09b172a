// Command expensectl records and inspects expenses from the terminal, using the
// same database as the web app.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	config.LoadEnvFile()

	ctx, stop := cli.SignalContext()
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every subcommand needs.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
	cfg    *config.Config
	today  func() core.Date
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		logger: log.New(log.Config{
			Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
			Component: log.ComponentCLI,
			Output:    stderr,
		}),
		cfg:   config.Load(),
		today: core.Today,
	}

	if len(args) < 1 {
		a.printUsage()
		return exitUsage
	}

	switch args[0] {
	case "init":
		return a.runInit(ctx, args[1:])
	case "add":
		return a.runAdd(ctx, args[1:])
	case "list":
		return a.runList(ctx, args[1:])
	case "export":
		return a.runExport(ctx, args[1:])
	case "seed":
		return a.runSeed(ctx, args[1:])
	case "dashboard":
		return a.runDashboard(ctx, args[1:])
	case "help", "-h", "--help":
		a.printUsage()
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		a.printUsage()
		return exitUsage
	}
}

func (a *app) printUsage() {
	fmt.Fprintln(a.stdout, "Expense Tracker CLI")
	fmt.Fprintln(a.stdout, "\nUsage:")
	fmt.Fprintln(a.stdout, "  expensectl <command> [options]")
	fmt.Fprintln(a.stdout, "\nCommands:")
	fmt.Fprintln(a.stdout, "  init       Create or migrate the database")
	fmt.Fprintln(a.stdout, "  add        Record an expense")
	fmt.Fprintln(a.stdout, "  list       List expenses with optional filters")
	fmt.Fprintln(a.stdout, "  export     Write filtered expenses as CSV")
	fmt.Fprintln(a.stdout, "  seed       Insert random demo expenses")
	fmt.Fprintln(a.stdout, "  dashboard  Show totals for a timeframe")
	fmt.Fprintln(a.stdout, "  help       Show this help message")
	fmt.Fprintln(a.stdout, "\nRun 'expensectl <command> -h' for more information on a command.")
}
