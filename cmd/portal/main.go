package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"ProfitPortal/internal/config"
)

var configPath = flag.String("config", config.Path(), "path to the YAML configuration file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&quoteCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
