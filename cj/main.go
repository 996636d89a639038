// Command cj is an offline first journal of crypto trading profit and loss.
package main

import (
	"context"
	"flag"
	"os"
	"path"
	"time"

	"github.com/etnz/cryptojourney/cmd"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// Exits when invoked by the shell to complete a command line.
	cmd.Completion(commander).Complete("cj")

	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *cmd.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	os.Exit(int(commander.Execute(context.Background())))
}
