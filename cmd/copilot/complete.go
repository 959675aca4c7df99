package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/germanamz/copilot/pkg/copilot"
	"github.com/germanamz/copilot/pkg/prompt"
)

type completeOptions struct {
	configPath string
	envFile    string
	system     string
	markdown   bool
	quiet      bool
	logLevel   string
	user       []string
}

func parseCompleteFlags(args []string) (completeOptions, error) {
	var o completeOptions

	fs := flag.NewFlagSet("copilot", flag.ContinueOnError)
	fs.Usage = usage(fs)
	fs.StringVar(&o.configPath, "config", "copilot.yaml", "path to configuration file")
	fs.StringVar(&o.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&o.system, "system", "", "system instructions framing the completion")
	fs.BoolVar(&o.markdown, "markdown", false, "render the completion as markdown")
	fs.BoolVar(&o.quiet, "quiet", false, "do not show a spinner while waiting")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	o.user = fs.Args()

	return o, nil
}

func runComplete(args []string) error {
	o, err := parseCompleteFlags(args)
	if err != nil {
		return err
	}

	if err := loadDotEnv(o.envFile); err != nil {
		return err
	}

	log, err := newLogger(os.Stderr, o.logLevel)
	if err != nil {
		return err
	}

	cfg, err := copilot.LoadConfig(o.configPath)
	if err != nil {
		return err
	}

	cp, c, err := cfg.Build(nil)
	if err != nil {
		return err
	}
	c = copilot.Chain(c, copilot.Logger(log, cp.String()))

	if len(o.user) == 0 && isTerminal(os.Stdin) {
		return errors.New("no user text: pass it as arguments or on stdin")
	}

	user, err := readUser(o.user, os.Stdin)
	if err != nil {
		return fmt.Errorf("read user text: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := prompt.New(o.system, user)
	if p.Empty() {
		log.Warn("user text is empty, sending it as-is")
	}

	var (
		text string
		ok   bool
	)
	if !o.quiet && isTerminal(os.Stderr) {
		text, ok, err = completeWithSpinner(ctx, c, p, cp.String())
	} else {
		text, ok, err = c.Complete(ctx, p)
	}
	if err != nil {
		return retryHint(err)
	}

	logUsage(log, cp)

	return printCompletion(os.Stdout, os.Stderr, text, ok, o.markdown)
}

func printCompletion(out, errOut io.Writer, text string, ok, markdown bool) error {
	if !ok {
		_, err := fmt.Fprintln(errOut, dimStyle.Render("(no completion)"))
		return err
	}

	if markdown {
		width := defaultWidth
		if f, isFile := out.(*os.File); isFile {
			width = termWidth(f)
		}
		text = renderMarkdown(text, width)
	}

	_, err := fmt.Fprintln(out, text)
	return err
}

func logUsage(log *slog.Logger, cp *copilot.Copilot) {
	last, ok := cp.Usage().Last()
	if !ok {
		return
	}

	if !last.Zero() {
		log.Debug("token usage",
			"backend", cp.String(),
			"input_tokens", last.InputTokens,
			"output_tokens", last.OutputTokens,
			"total_tokens", last.Total(),
		)
	}

	if quota, ok := cp.RateLimit(); ok {
		log.Debug("rate limit",
			"backend", cp.String(),
			"remaining_requests", quota.RemainingRequests,
			"remaining_tokens", quota.RemainingTokens,
			"tokens_reset", quota.TokensReset,
		)
	}
}
