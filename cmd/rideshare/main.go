// Command rideshare runs the identity, inventory and booking services, either one per
// process or all together.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/next-trace/scg-rideshare/internal/app"
	"github.com/next-trace/scg-rideshare/internal/config"
	"github.com/next-trace/scg-rideshare/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rideshare:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("rideshare", pflag.ExitOnError)
	config.Flags(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	path, _ := fs.GetString("config")

	cfg, err := config.Load(path, fs)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
