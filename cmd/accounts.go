package cmd

import (
	"context"
	"flag"
	"fmt"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// accountCmd holds the flags for the 'account' subcommand.
type accountCmd struct {
	date    string
	binance string
	okx     string
	wallet  string
}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "record the balance of the accounts for a day" }
func (*accountCmd) Usage() string {
	return `cj account [-d <date>] [-binance <usd>] [-okx <usd>] [-wallet <usd>]

  Records the balances of the Binance and OKX accounts and of the wallet.
  A snapshot for a day that already has one replaces it.
`
}

func (c *accountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the snapshot (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.binance, "binance", "", "Binance balance in USD.")
	f.StringVar(&c.okx, "okx", "", "OKX balance in USD.")
	f.StringVar(&c.wallet, "wallet", "", "Wallet balance in USD.")
}

func (c *accountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		return usage(err)
	}
	var amounts [3]decimal.Decimal
	for i, s := range []string{c.binance, c.okx, c.wallet} {
		if amounts[i], err = journey.ParseAmount(s); err != nil {
			return usage(err)
		}
	}
	snap, err := journey.NewSnapshot(now(), on, amounts[0], amounts[1], amounts[2])
	if err != nil {
		return usage(err)
	}

	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	snap, err = a.sync.UpsertSnapshot(ctx, snap)
	if err != nil {
		return fail("cannot record the snapshot", err)
	}
	fmt.Fprintf(stdout, "Recorded snapshot %d on %s: %s\n", snap.ID, snap.Date, renderer.USD(snap.Total))
	return subcommands.ExitSuccess
}

type accountRmCmd struct{}

func (*accountRmCmd) Name() string     { return "account-rm" }
func (*accountRmCmd) Synopsis() string { return "remove account snapshots" }
func (*accountRmCmd) Usage() string {
	return `cj account-rm <id>...

  Removes the account snapshots with the given ids, as listed by 'cj accounts'.
`
}

func (*accountRmCmd) SetFlags(f *flag.FlagSet) {}

func (*accountRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
		if err := a.sync.DeleteSnapshot(ctx, id); err != nil {
			return fail("cannot remove the snapshot", err)
		}
		fmt.Fprintf(stdout, "Removed snapshot %d\n", id)
	}
	return subcommands.ExitSuccess
}

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list account snapshots" }
func (*accountsCmd) Usage() string {
	return `cj accounts

  Lists the account snapshots, most recent first.
`
}

func (*accountsCmd) SetFlags(f *flag.FlagSet) {}

func (*accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	printMarkdown(renderer.RenderAccounts(&renderer.Accounts{
		Rate:      a.rate(ctx),
		Snapshots: a.sync.State().Snapshots,
	}))
	return subcommands.ExitSuccess
}
