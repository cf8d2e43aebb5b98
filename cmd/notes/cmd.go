package main

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/template"

	"github.com/sourcegraph/notes/internal/logging"
)

// command is one subcommand of the notes tool.
type command struct {
	// Flags holds the subcommand's options. Its name is the subcommand name.
	Flags *flag.FlagSet

	// Summary is the one-line description listed by "notes help".
	Summary string

	// Help is printed by "notes COMMAND -h" after the usage line.
	Help string

	// ArgsUsage names the positional arguments in the usage line, if any.
	ArgsUsage string

	// aliases are alternate names for the subcommand.
	aliases []string

	// handler runs the subcommand with the arguments left after flag parsing.
	handler func(args []string) error
}

// Names returns the subcommand name and its aliases, comma separated.
func (c *command) Names() string {
	return strings.Join(append([]string{c.Flags.Name()}, c.aliases...), ",")
}

func (c *command) matches(name string) bool {
	return name == c.Flags.Name() || slices.Contains(c.aliases, name)
}

// commander represents a top-level command with subcommands.
type commander []*command

// run parses args, runs the named subcommand, and returns the process exit code.
func (c commander) run(flagSet *flag.FlagSet, cmdName string, usage *template.Template, args []string) int {
	out := flagSet.Output()
	flagSet.Usage = func() {
		data := struct {
			FlagUsage func() string
			Commands  []*command
		}{
			FlagUsage: func() string { flagSet.PrintDefaults(); return "" },
			Commands:  c,
		}
		if err := usage.Execute(out, data); err != nil {
			logging.Default().Error("printing usage", logging.FieldError, err.Error())
		}
	}
	if !flagSet.Parsed() {
		if err := flagSet.Parse(args); err != nil {
			return 2
		}
	}

	// Print usage if the command is "help".
	if flagSet.Arg(0) == "help" || flagSet.NArg() == 0 {
		flagSet.Usage()
		return 0
	}

	for _, cmd := range c {
		cmd.Flags.SetOutput(out)
		cmd.Flags.Usage = commandUsage(out, cmdName, cmd)
	}

	// Find the subcommand to execute.
	name := flagSet.Arg(0)
	for _, cmd := range c {
		if !cmd.matches(name) {
			continue
		}

		// Parse subcommand flags.
		if err := cmd.Flags.Parse(flagSet.Args()[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		// Execute the subcommand.
		if err := cmd.handler(cmd.Flags.Args()); err != nil {
			if e, ok := err.(*usageError); ok {
				logging.Default().Error(e.error)
				cmd.Flags.Usage()
				return 2
			}
			if e, ok := err.(*exitCodeError); ok {
				if e.error != nil {
					logging.Default().Error(e.error)
				}
				return e.exitCode
			}
			logging.Default().Error(err)
			return 1
		}
		return 0
	}
	logging.Default().Errorf("%s: unknown subcommand %q", cmdName, name)
	logging.Default().Errorf("Run '%s help' for usage.", cmdName)
	return 2
}

func commandUsage(out io.Writer, cmdName string, cmd *command) func() {
	return func() {
		fmt.Fprintln(out, "Usage:")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s [options] %s", cmdName, cmd.Flags.Name())
		if hasFlags(cmd.Flags) {
			fmt.Fprint(out, " [command options]")
		}
		if cmd.ArgsUsage != "" {
			fmt.Fprint(out, " "+cmd.ArgsUsage)
		}
		fmt.Fprintln(out)
		if cmd.Help != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, cmd.Help)
			fmt.Fprintln(out)
		}
		if hasFlags(cmd.Flags) {
			fmt.Fprintln(out, "The command options are:")
			fmt.Fprintln(out)
			cmd.Flags.PrintDefaults()
		}
	}
}

func hasFlags(flagSet *flag.FlagSet) bool {
	n := 0
	flagSet.VisitAll(func(*flag.Flag) { n++ })
	return n > 0
}

// usageError reports bad arguments. The subcommand's usage is printed and the exit code is 2.
type usageError struct {
	error
}

// exitCodeError makes the process exit with exitCode, logging error if it is non-nil.
type exitCodeError struct {
	error
	exitCode int
}
