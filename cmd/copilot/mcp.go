package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/germanamz/copilot/pkg/copilot"
	"github.com/germanamz/copilot/pkg/mcpserver"
)

const version = "0.1.0"

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: copilot mcp [flags]\n\nServe completions as an MCP tool over stdio.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "copilot.yaml", "path to configuration file")
	envFile := fs.String("env", ".env", "path to .env file (ignored if missing)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := loadDotEnv(*envFile); err != nil {
		return err
	}

	// stdout carries the protocol, so logs go to stderr.
	log, err := newLogger(os.Stderr, *logLevel)
	if err != nil {
		return err
	}

	cfg, err := copilot.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	cp, c, err := cfg.Build(nil)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := mcpserver.New("copilot", version, copilot.Chain(c, copilot.Logger(log, cp.String())))

	log.Info("serving mcp over stdio", "backend", cp.String())

	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
