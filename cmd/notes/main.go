package main

import (
	"flag"
	"net/http"
	"os"
	"text/template"

	_ "go.uber.org/automaxprocs"

	"github.com/sourcegraph/notes"
	"github.com/sourcegraph/notes/internal/config"
	"github.com/sourcegraph/notes/internal/logging"
)

var usage = template.Must(template.New("").Parse(`notes is a tool for compiling and serving a site of Markdown notes.

Usage:

  notes [options] command [command options]

The options are:

{{call .FlagUsage }}
The commands are:
{{range .Commands}}
  {{printf "%- 15s" .Names}} {{.Summary}}
{{- end}}

Use "notes [command] -h" for more information about a command.

`))

var (
	configPath  = flag.String("config", "", "path to config `file` (default $HOME/.config/notes/notes.toml)")
	logLevel    = flag.String("log-level", "info", "log `level` (debug, info, warn, error)")
	contentPath = flag.String("content", "", "path to `dir` containing .md notes (overrides content_path in the config)")
)

// commands contains all registered subcommands.
var commands commander

func main() {
	os.Exit(commands.run(flag.CommandLine, "notes", usage, os.Args[1:]))
}

// configFromFlags loads the config file named by the -config flag and applies the -content flag.
// A config file that can't be read is logged and the defaults are used.
func configFromFlags() config.Config {
	logging.SetLevel(*logLevel)
	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			logging.Default().Warn("using default config", logging.FieldError, err.Error())
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			logging.Default().Error("loading config", logging.FieldConfig, path, logging.FieldError, err.Error())
		} else {
			logging.Default().Debug("loaded config", logging.FieldConfig, path)
		}
	}
	if *contentPath != "" {
		cfg.ContentPath = *contentPath
	}
	return cfg
}

func siteFromConfig(cfg config.Config) *notes.Site {
	return &notes.Site{
		Content: http.Dir(cfg.ContentPath),
		Logger:  logging.Default(),
	}
}
