package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/date"
	"github.com/etnz/cryptojourney/renderer"
	"github.com/etnz/cryptojourney/stats"
	"github.com/google/subcommands"
)

// addCmd holds the flags for the 'add' subcommand.
type addCmd struct {
	date   string
	profit string
	loss   string
	note   string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record the profit and loss of a day" }
func (*addCmd) Usage() string {
	return `cj add [-d <date>] [-p <profit>] [-l <loss>] [-n <note>]

  Records a new journal entry. At least one of profit and loss is required,
  both are USD amounts and cannot be negative.

Usage Examples:
$ cj add -p 120.5 -n "ETH scalp"
$ cj add -d 2024-01-15 -l 30
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the entry (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.profit, "p", "", "Profit in USD.")
	f.StringVar(&c.loss, "l", "", "Loss in USD.")
	f.StringVar(&c.note, "n", "", "Optional note, at most 200 characters.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		return usage(err)
	}
	profit, err := journey.ParseAmount(c.profit)
	if err != nil {
		return usage(err)
	}
	loss, err := journey.ParseAmount(c.loss)
	if err != nil {
		return usage(err)
	}
	e, err := journey.NewEntry(now(), on, profit, loss, c.note)
	if err != nil {
		return usage(err)
	}

	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	e, err = a.sync.AddEntry(ctx, e)
	if err != nil {
		return fail("cannot add the entry", err)
	}
	fmt.Fprintf(stdout, "Added entry %d on %s: %s\n", e.ID, e.Date, renderer.Signed(e.PnL, renderer.USD(e.PnL)))
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove journal entries" }
func (*rmCmd) Usage() string {
	return `cj rm <id>...

  Removes the entries with the given ids, as listed by 'cj history'.
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := parseIDs(f.Args())
	if err != nil {
		return usage(err)
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	for _, id := range ids {
		if err := a.sync.DeleteEntry(ctx, id); err != nil {
			return fail("cannot remove the entry", err)
		}
		fmt.Fprintf(stdout, "Removed entry %d\n", id)
	}
	return subcommands.ExitSuccess
}

// historyCmd holds the flags for the 'history' subcommand.
type historyCmd struct {
	month string
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list journal entries grouped by day" }
func (*historyCmd) Usage() string {
	return `cj history [-m <YYYY-MM>] [-n <days>]

  Lists the journal entries, most recent day first, with the total of each day.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Only show this month (YYYY-MM).")
	f.IntVar(&c.limit, "n", 30, "Maximum number of days to show, 0 for all.")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.month != "" {
		if _, err := date.Parse(c.month + "-01"); err != nil {
			return usage(fmt.Errorf("invalid month %q, want YYYY-MM", c.month))
		}
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	h := renderer.NewHistory(a.sync.State().Entries, c.month, c.limit, a.rate(ctx))
	printMarkdown(renderer.RenderHistory(h))
	return subcommands.ExitSuccess
}

// statsCmd holds the flags for the 'stats' subcommand.
type statsCmd struct {
	window string
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "display the summary figures and a chart of daily results" }
func (*statsCmd) Usage() string {
	return `cj stats [-w week|month|all]

  Displays today's result, the totals, the daily averages, the latest account
  snapshot, and a chart of the daily results.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.window, "w", string(stats.Week), "Chart window: week, month, or all.")
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	window := stats.Window(c.window)
	switch window {
	case stats.Week, stats.Month, stats.All:
	default:
		return usage(fmt.Errorf("unknown window %q", c.window))
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	state := a.sync.State()
	rate := a.rate(ctx)
	on := today()
	s := &renderer.Summary{
		Today: on,
		Rate:  rate,
		Stats: stats.Compute(state.Entries, on),
		Dirty: a.sync.Dirty(),
	}
	if snap, ok := stats.LatestSnapshot(state.Snapshots); ok {
		s.Latest = &snap
	}
	if a.sync.Credential().Configured() {
		s.Sync = a.sync.Status().Phase.String()
	}
	printMarkdown(renderer.RenderSummary(s) + "\n" + renderer.RenderChart(renderer.NewChart(state.Entries, on, window, rate)))
	return subcommands.ExitSuccess
}

// parseDay parses a date flag, empty meaning today.
func parseDay(s string) (date.Date, error) {
	if s == "" {
		return today(), nil
	}
	return date.Parse(s)
}

func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one id is required")
	}
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// usage prints err and returns subcommands.ExitUsageError.
func usage(err error) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return subcommands.ExitUsageError
}
