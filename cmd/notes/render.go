package main

import (
	"flag"
	"os"

	"github.com/pkg/errors"

	"github.com/sourcegraph/notes"
	"github.com/sourcegraph/notes/internal/logging"
	"github.com/sourcegraph/notes/markdown"
)

func init() {
	flagSet := flag.NewFlagSet("render", flag.ExitOnError)

	handler := func(args []string) error {
		logging.SetLevel(*logLevel)
		if len(args) != 1 {
			return &usageError{errors.New("render takes exactly one file")}
		}
		page, err := renderFile(args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(page)
		return err
	}

	// Register the command.
	commands = append(commands, &command{
		Flags:     flagSet,
		Summary:   "compile a single Markdown file to HTML",
		Help:      "The render subcommand compiles one Markdown file to a complete HTML page and writes it to standard output. Without a meta block, the title is the file name and the date is the file's modification date.",
		ArgsUsage: "FILE",
		handler:   handler,
	})
}

func renderFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	page, _ := markdown.Compile(source, notes.InferMetadata(path, fi))
	return page, nil
}
