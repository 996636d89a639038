package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/google/subcommands"
)

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show where the data is and whether changes are pending" }
func (*statusCmd) Usage() string {
	return `cj status

  Shows the local store, the gist credential, the result of the last
  synchronization, and whether local changes are waiting to be pushed.
`
}

func (*statusCmd) SetFlags(f *flag.FlagSet) {}

func (*statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	// no flush: status reports pending changes as they are
	defer a.close()

	state := a.sync.State()
	var b strings.Builder
	b.WriteString("# Status\n\n")
	b.WriteString("| | |\n|:---|:---|\n")
	row := func(k, v string) { fmt.Fprintf(&b, "| %s | %s |\n", k, v) }

	if a.cfg.RedisAddr != "" {
		row("Store", "redis "+a.cfg.RedisAddr)
	} else {
		row("Store", a.cfg.StoreDir)
	}
	row("Entries", fmt.Sprint(len(state.Entries)))
	row("Snapshots", fmt.Sprint(len(state.Snapshots)))
	row("Exchange rate", state.Rate.String())

	cred := a.sync.Credential()
	if cred.Configured() {
		row("Gist", cred.RemoteID)
		row("Token", journey.Mask(cred.Token))
		st := a.sync.Status()
		row("Last sync", fmt.Sprintf("%s at %s", st.Phase, st.At.Format(time.DateTime)))
		if st.Err != nil {
			row("Error", strings.ReplaceAll(st.Err.Error(), "|", `\|`))
		}
	} else {
		row("Gist", "not configured")
	}
	if a.sync.Dirty() {
		row("Pending changes", "yes")
	} else {
		row("Pending changes", "no")
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
