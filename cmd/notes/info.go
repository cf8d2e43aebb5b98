package main

import (
	"flag"
	"os"

	"github.com/BurntSushi/toml"
)

func init() {
	flagSet := flag.NewFlagSet("info", flag.ExitOnError)

	handler := func(args []string) error {
		return toml.NewEncoder(os.Stdout).Encode(configFromFlags())
	}

	commands = append(commands, &command{
		Flags:   flagSet,
		Summary: "print the notes configuration",
		Help:    "The info subcommand prints the effective configuration, after applying the config file and flags.",
		handler: handler,
	})
}
