package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/pkg/errors"

	"github.com/sourcegraph/notes"
	"github.com/sourcegraph/notes/internal/logging"
)

func init() {
	flagSet := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		outDir = flagSet.String("out", "", "write the compiled site to `dir`")
	)

	handler := func(args []string) error {
		if *outDir == "" {
			return &usageError{errors.New("-out is required")}
		}
		site := siteFromConfig(configFromFlags())
		if err := site.Reload(context.Background()); err != nil {
			return err
		}
		n, err := buildSite(site, *outDir)
		if err != nil {
			return err
		}
		logging.Default().Info("built site", logging.FieldOutput, *outDir, logging.FieldEntries, n)
		return nil
	}

	// Register the command.
	commands = append(commands, &command{
		Flags:   flagSet,
		Summary: "compile the notes to static HTML files",
		Help:    "The build subcommand compiles the index and every note to HTML files in the output directory. The index is written to index.html and each note to note/PATH.html.",
		handler: handler,
	})
}

// buildSite writes the site's index page and notes under dir and returns the number of notes
// written.
func buildSite(site *notes.Site, dir string) (int, error) {
	if err := writeFile(filepath.Join(dir, "index.html"), site.IndexPage()); err != nil {
		return 0, err
	}
	index := site.Index()
	for _, e := range index {
		doc, err := site.RenderNote(e.Path)
		if err != nil {
			return 0, errors.WithMessage(err, fmt.Sprintf("rendering %s", e.Path))
		}
		path := filepath.Join(dir, "note", filepath.FromSlash(e.Path)+".html")
		if err := writeFile(path, doc.HTML); err != nil {
			return 0, err
		}
		logging.Default().Debug("wrote note", logging.FieldPath, e.Path, logging.FieldOutput, path)
	}
	return len(index), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithMessage(err, "creating output directory")
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.WithMessage(err, fmt.Sprintf("writing %s", path))
	}
	return nil
}
