package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/germanamz/copilot/pkg/modeladapter"
	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const defaultWidth = 100

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// termWidth returns the width of f, or defaultWidth when it is not a terminal.
func termWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // fd fits in int
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// preview flattens s to a single line no wider than width cells.
func preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// readUser returns the user text from args, or from in when args is empty.
func readUser(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// renderMarkdown converts markdown text to terminal-formatted output. It
// falls back to the raw text if the renderer fails.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(out, "\n")
}

// isTerminalWriter reports whether w is a terminal file.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// retryHint annotates transport failures that are worth retrying. The CLI
// itself never retries.
func retryHint(err error) error {
	var te *modeladapter.TransportError
	if !errors.As(err, &te) || !te.Temporary() {
		return err
	}

	if te.RetryAfter > 0 {
		return fmt.Errorf("%w (temporary, retry after %s)", err, te.RetryAfter)
	}
	return fmt.Errorf("%w (temporary, retry later)", err)
}
