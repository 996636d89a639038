package cmd

import (
	"flag"

	"github.com/etnz/cryptojourney/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors completes the value of flags naming files or fixed choices.
var flagPredictors = map[string]complete.Predictor{
	"config":    predict.Files("*.yaml"),
	"store-dir": predict.Dirs("*"),
	"o":         predict.Files("*.json"),
	"w":         predict.Set{"week", "month", "all"},
}

// Completion returns the shell completion of the commands registered in c.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(c.VisitAll),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: flags(fs.VisitAll)}
		switch cmd.Name() {
		case "import":
			sub.Args = predict.Files("*.json")
		case "topic":
			sub.Args = topicPredictor{}
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}

// flags predicts the flags visited by visit.
func flags(visit func(func(*flag.Flag))) map[string]complete.Predictor {
	m := make(map[string]complete.Predictor)
	visit(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			m[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[f.Name] = predict.Nothing
			return
		}
		m[f.Name] = predict.Something
	})
	return m
}

type topicPredictor struct{}

func (topicPredictor) Predict(string) []string {
	topics, _ := docs.All()
	return topics
}
