package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/sourcegraph/notes"
	"github.com/sourcegraph/notes/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func init() {
	flagSet := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		httpAddr = flagSet.String("http", "", "HTTP listen `address` (overrides bind in the config)")
	)

	handler := func(args []string) error {
		cfg := configFromFlags()
		if *httpAddr != "" {
			cfg.Bind = *httpAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		site := siteFromConfig(cfg)
		if err := site.Reload(ctx); err != nil {
			return err
		}

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go reloadOnSignal(ctx, site, hup)

		return serve(ctx, &http.Server{Addr: cfg.Bind, Handler: site.Handler()})
	}

	// Register the command.
	commands = append(commands, &command{
		Flags:   flagSet,
		Summary: "start a web server to serve the notes",
		Help:    "The serve subcommand starts a web server to serve the index and the notes over HTTP. Notes are compiled on each request. Send SIGHUP to rebuild the index after adding or removing notes.",
		handler: handler,
	})
}

// reloadOnSignal rebuilds the site index each time a value is received on sig, until ctx is done.
func reloadOnSignal(ctx context.Context, site *notes.Site, sig <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if err := site.Reload(ctx); err != nil {
				logging.Default().Error("reloading index", logging.FieldError, err.Error())
			}
		}
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		logging.Default().Info("listening", logging.FieldAddr, "http://"+srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.WithMessage(err, "serving HTTP")
	case <-ctx.Done():
	}

	logging.Default().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WithMessage(err, "shutting down")
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
