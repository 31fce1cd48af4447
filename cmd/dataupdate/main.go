package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/config"
)

var configPath = flag.String("config", config.DefaultConfigPath, "path to the yaml/json config file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&runCmd{}, "ingest")
	commander.Register(&syncCmd{}, "mirror")
	commander.Register(&bootstrapCmd{}, "mirror")
	commander.Register(&serveCmd{}, "daemon")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
