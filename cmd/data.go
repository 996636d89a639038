package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/store"
	"github.com/google/subcommands"
)

type rateCmd struct{}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "show or set the USD to CNY exchange rate" }
func (*rateCmd) Usage() string {
	return `cj rate [<rate>]

  Without argument, shows the exchange rate in use. With an argument, sets it.
  The rate must be between 0.01 and 100. A set rate is used until the next
  successful lookup, at most 30 minutes later.
`
}

func (*rateCmd) SetFlags(f *flag.FlagSet) {}

func (*rateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		return usage(fmt.Errorf("at most one rate is expected"))
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	if f.NArg() == 0 {
		fmt.Fprintf(stdout, "1 USD = %s CNY\n", a.rate(ctx))
		return subcommands.ExitSuccess
	}

	rate, err := journey.ParseAmount(f.Arg(0))
	if err != nil {
		return usage(err)
	}
	if err := a.sync.SetRate(ctx, rate); err != nil {
		return fail("cannot set the rate", err)
	}
	if err := a.store.SaveRateCache(ctx, store.RateCache{Rate: rate, Timestamp: now()}); err != nil {
		return fail("cannot set the rate", err)
	}
	fmt.Fprintf(stdout, "1 USD = %s CNY\n", rate)
	return subcommands.ExitSuccess
}

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export journal entries as json" }
func (*exportCmd) Usage() string {
	return `cj export [-o <file>]

  Writes the journal entries and the exchange rate as json. Account snapshots
  are not exported.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	state := a.sync.State()
	w := stdout
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			return fail("cannot create the export file", err)
		}
		defer file.Close()
		w = file
	}
	if err := journey.Export(w, state.Entries, state.Rate, now()); err != nil {
		return fail("cannot export", err)
	}
	if c.output != "" {
		fmt.Fprintf(stderr, "Exported %d entries to %s\n", len(state.Entries), c.output)
	}
	return subcommands.ExitSuccess
}

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	force bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace journal entries with an export file" }
func (*importCmd) Usage() string {
	return `cj import [-force] <file>

  Replaces every journal entry with the valid entries of the file, '-' for
  stdin. Invalid entries are skipped. The exchange rate of the file is used when
  it is valid.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Replace existing entries.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(fmt.Errorf("exactly one file is expected"))
	}
	var r io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return fail("cannot open the import file", err)
		}
		defer file.Close()
		r = file
	}
	res, err := journey.Import(r, now())
	if err != nil {
		return fail("cannot import", err)
	}

	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	if n := len(a.sync.State().Entries); n > 0 && !c.force {
		return usage(fmt.Errorf("importing replaces the %d existing entries, use -force", n))
	}
	if err := a.sync.Import(ctx, res.Entries, res.Rate); err != nil {
		return fail("cannot import", err)
	}
	fmt.Fprintf(stdout, "Imported %d entries", len(res.Entries))
	if res.Rejected > 0 {
		fmt.Fprintf(stdout, ", skipped %d invalid ones", res.Rejected)
	}
	fmt.Fprintln(stdout)
	return subcommands.ExitSuccess
}

// clearCmd holds the flags for the 'clear' subcommand.
type clearCmd struct {
	force bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "remove every journal entry" }
func (*clearCmd) Usage() string {
	return `cj clear -force

  Removes every journal entry. Account snapshots are kept.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Confirm the removal.")
}

func (c *clearCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.force {
		return usage(fmt.Errorf("clear removes every entry, use -force"))
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	if err := a.sync.Clear(ctx); err != nil {
		return fail("cannot clear the journal", err)
	}
	fmt.Fprintln(stdout, "Removed every entry")
	return subcommands.ExitSuccess
}
