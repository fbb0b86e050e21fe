package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bililive/internal/buildinfo"
	"github.com/dmitrijs2005/bililive/internal/client/cli"
	"github.com/dmitrijs2005/bililive/internal/client/config"
	"github.com/dmitrijs2005/bililive/internal/flagx"
	"github.com/dmitrijs2005/bililive/internal/logging"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitConfig   = 2
	exitCanceled = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	command := flagx.Command(os.Args[1:])
	if command == "version" {
		buildinfo.PrintBuildData(os.Stdout)
		return exitOK
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("%v", err)
		return exitConfig
	}

	logger, closer, err := logging.New(cfg.LoggingOptions(command == cli.CommandRun))
	if err != nil {
		log.Printf("logging: %v", err)
		return exitConfig
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		log.Printf("%v", err)
		return exitFailure
	}
	defer app.Close()

	err = app.Run(ctx, command, flagx.Args(os.Args[1:])...)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitCanceled
	case errors.Is(err, cli.ErrUsage), errors.Is(err, cli.ErrUnknownCommand):
		fmt.Fprintf(os.Stderr, "bililive %s: %v\n", command, err)
		return exitConfig
	default:
		logger.Error(ctx, "command failed", "command", command, "error", err)
		fmt.Fprintf(os.Stderr, "bililive %s: %v\n", command, err)
		return exitFailure
	}
}
