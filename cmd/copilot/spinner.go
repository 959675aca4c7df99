package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/copilot/pkg/copilot"
	"github.com/germanamz/copilot/pkg/prompt"
)

var errInterrupted = errors.New("interrupted")

// completionDoneMsg carries the outcome of the background completion.
type completionDoneMsg struct {
	text string
	ok   bool
	err  error
}

// spinnerModel shows a spinner and a one-line prompt preview until the
// completion finishes.
type spinnerModel struct {
	spinner  spinner.Model
	label    string
	complete tea.Cmd
	cancel   context.CancelFunc
	done     *completionDoneMsg
}

func newSpinnerModel(label string, complete tea.Cmd, cancel context.CancelFunc) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(spinnerStyle),
		),
		label:    label,
		complete: complete,
		cancel:   cancel,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.complete)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case completionDoneMsg:
		m.done = &msg
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.cancel()
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m spinnerModel) View() string {
	if m.done != nil {
		return ""
	}
	return m.spinner.View() + " " + dimStyle.Render(m.label)
}

// completeWithSpinner runs c while animating a spinner on stderr.
func completeWithSpinner(ctx context.Context, c copilot.Completer, p prompt.Prompt, backend string) (string, bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := func() tea.Msg {
		text, ok, err := c.Complete(ctx, p)
		return completionDoneMsg{text: text, ok: ok, err: err}
	}

	label := backend + " · " + preview(p.User, termWidth(os.Stderr)-len(backend)-6)
	model := newSpinnerModel(label, run, cancel)

	prog := tea.NewProgram(model,
		tea.WithOutput(os.Stderr),
		tea.WithInputTTY(),
		tea.WithContext(ctx),
	)

	final, err := prog.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return "", false, err
	}

	fm, _ := final.(spinnerModel)
	if fm.done == nil {
		return "", false, errInterrupted
	}

	return fm.done.text, fm.done.ok, fm.done.err
}
