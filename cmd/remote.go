package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/gist"
	"github.com/google/subcommands"
)

// configCmd holds the flags for the 'config' subcommand.
type configCmd struct {
	show   bool
	token  string
	gistID string
	reset  bool
}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "show the settings or store the gist credential" }
func (*configCmd) Usage() string {
	return `cj config [-show] [-token <token>] [-gist <id>] [-reset]

  Without flags, shows the gist credential in use. -token and -gist store a new
  credential, missing parts are taken from the stored one, and the gist is
  fetched and merged at once. -reset removes the stored credential: data is
  kept on this device only.
`
}

func (c *configCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.show, "show", false, "Print the settings in use as YAML.")
	f.StringVar(&c.token, "token", "", "GitHub token with the gist scope.")
	f.StringVar(&c.gistID, "gist", "", "Id of the gist holding the data.")
	f.BoolVar(&c.reset, "reset", false, "Remove the stored credential.")
}

func (c *configCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.show {
		cfg, err := loadConfig()
		if err != nil {
			return fail("invalid configuration", err)
		}
		cfg.Token = journey.Mask(cfg.Token)
		if err := cfg.Encode(stdout); err != nil {
			return fail("cannot print the configuration", err)
		}
		return subcommands.ExitSuccess
	}

	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	switch {
	case c.reset:
		if err := a.sync.Unconfigure(ctx); err != nil {
			return fail("cannot remove the credential", err)
		}
		fmt.Fprintln(stdout, "Credential removed, data is kept on this device only")
		return subcommands.ExitSuccess

	case c.token != "" || c.gistID != "":
		cred, err := a.store.Credential(ctx)
		if err != nil {
			return fail("cannot read the credential", err)
		}
		if c.token != "" {
			cred.Token = strings.TrimSpace(c.token)
		}
		if c.gistID != "" {
			cred.RemoteID = strings.TrimSpace(c.gistID)
		}
		if err := a.sync.Configure(ctx, cred); err != nil {
			if errors.Is(err, journey.ErrValidation) {
				return usage(err)
			}
			return fail("cannot configure the gist", err)
		}
	}

	printCredential(a.sync.Credential())
	if st := a.sync.Status(); st.Err != nil {
		fmt.Fprintf(stdout, "Last sync failed: %v\n", st.Err)
	}
	return subcommands.ExitSuccess
}

func printCredential(cred journey.Credential) {
	if !cred.Configured() {
		fmt.Fprintln(stdout, "Sync not configured, data is kept on this device only")
		return
	}
	fmt.Fprintf(stdout, "Gist:  %s\nToken: %s\n", cred.RemoteID, journey.Mask(cred.Token))
}

// createGistCmd holds the flags for the 'create-gist' subcommand.
type createGistCmd struct {
	token       string
	description string
}

func (*createGistCmd) Name() string     { return "create-gist" }
func (*createGistCmd) Synopsis() string { return "create a private gist and sync with it" }
func (*createGistCmd) Usage() string {
	return `cj create-gist [-token <token>] [-description <text>]

  Creates a private gist holding an empty journal, stores its id with the token,
  and pushes the local data to it. The token defaults to the stored one.
`
}

func (c *createGistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.token, "token", "", "GitHub token with the gist scope.")
	f.StringVar(&c.description, "description", gist.DefaultDescription, "Description of the gist.")
}

func (c *createGistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	token := strings.TrimSpace(c.token)
	if token == "" {
		token = a.sync.Credential().Token
	}
	if err := journey.ValidateToken(token); err != nil {
		return usage(err)
	}
	id, err := a.remote(journey.Credential{Token: token}).Create(ctx, c.description)
	if err != nil {
		return fail("cannot create the gist", err)
	}
	if err := a.sync.Configure(ctx, journey.Credential{Token: token, RemoteID: id}); err != nil {
		return fail("cannot configure the gist", err)
	}
	if err := a.sync.Push(ctx); err != nil {
		return fail("gist created but the local data was not pushed", err)
	}
	fmt.Fprintf(stdout, "Created gist %s\n", id)
	return subcommands.ExitSuccess
}

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "merge the gist and push pending changes" }
func (*syncCmd) Usage() string {
	return `cj sync

  Fetches the gist, merges it with the local data, and pushes the result when
  the local data has records the gist does not have.
`
}

func (*syncCmd) SetFlags(f *flag.FlagSet) {}

func (*syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	if !a.sync.Credential().Configured() {
		return fail("cannot sync", journey.ErrNotConfigured)
	}
	if st := a.sync.Status(); st.Err != nil {
		return fail("cannot sync", st.Err)
	}
	if a.sync.Dirty() {
		if err := a.sync.Push(ctx); err != nil {
			return fail("cannot push", err)
		}
	}
	state := a.sync.State()
	fmt.Fprintf(stdout, "Synchronized %d entries and %d snapshots\n", len(state.Entries), len(state.Snapshots))
	return subcommands.ExitSuccess
}

type pushCmd struct{}

func (*pushCmd) Name() string     { return "push" }
func (*pushCmd) Synopsis() string { return "push the local data to the gist" }
func (*pushCmd) Usage() string {
	return `cj push

  Pushes the local data to the gist, whether changes are pending or not.
`
}

func (*pushCmd) SetFlags(f *flag.FlagSet) {}

func (*pushCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(ctx)

	if !a.sync.Credential().Configured() {
		return fail("cannot push", journey.ErrNotConfigured)
	}
	if err := a.sync.Push(ctx); err != nil {
		return fail("cannot push", err)
	}
	fmt.Fprintln(stdout, "Pushed")
	return subcommands.ExitSuccess
}
