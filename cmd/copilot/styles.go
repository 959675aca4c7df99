package main

import "github.com/charmbracelet/lipgloss"

// Centralized style definitions for the CLI.
var (
	// Spinner / progress styles.
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // magenta

	// General utility styles.
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray/dim
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))

	// Model listing styles.
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	providerStyle = lipgloss.NewStyle().Bold(true)
	defaultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
)
