package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frontnickson/toolrole-sub001/internal/buildinfo"
	"github.com/frontnickson/toolrole-sub001/internal/client/cli"
	"github.com/frontnickson/toolrole-sub001/internal/client/config"
	"github.com/frontnickson/toolrole-sub001/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "start failed", "err", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
