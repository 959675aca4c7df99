package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/copilot/pkg/providers/catalog"
	"gopkg.in/yaml.v3"
)

type wizardAnswers struct {
	Provider  catalog.Provider
	Model     catalog.Model
	APIKeyEnv string
	Timeout   string
}

// wizardConfig is the YAML written by init. Only the fields the wizard asks
// about are emitted.
type wizardConfig struct {
	APIKey   string `yaml:"api_key"` //nolint:gosec // env var reference, not a secret
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout,omitempty"`
}

//nolint:gosec // env var names, not secrets
var apiKeyEnvDefaults = map[catalog.Provider]string{
	catalog.OpenAI:    "OPENAI_API_KEY",
	catalog.Groq:      "GROQ_API_KEY",
	catalog.Anthropic: "ANTHROPIC_API_KEY",
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: copilot init [flags]\n\nWrite a config file interactively.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "copilot.yaml", "path of the config file to write")
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*force {
		if _, err := os.Stat(*configPath); err == nil {
			return fmt.Errorf("%s already exists (use -force to overwrite)", *configPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking config file: %w", err)
		}
	}

	answers, err := runWizard()
	if err != nil {
		return err
	}

	data, err := marshalWizardConfig(answers)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*configPath, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", *configPath)

	return nil
}

func runWizard() (wizardAnswers, error) {
	a := wizardAnswers{Provider: catalog.DefaultProvider}

	providerOptions := make([]huh.Option[catalog.Provider], 0, len(catalog.Providers()))
	for _, p := range catalog.Providers() {
		providerOptions = append(providerOptions, huh.NewOption(p.String(), p))
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[catalog.Provider]().
			Title("Provider").
			Options(providerOptions...).
			Value(&a.Provider),
	)).Run(); err != nil {
		return a, err
	}

	a.Model = a.Provider.DefaultModel()
	a.APIKeyEnv = apiKeyEnvDefaults[a.Provider]
	a.Timeout = "30s"

	modelOptions := make([]huh.Option[catalog.Model], 0, len(a.Provider.Models()))
	for _, m := range a.Provider.Models() {
		modelOptions = append(modelOptions, huh.NewOption(m.String(), m))
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[catalog.Model]().
			Title("Model").
			Options(modelOptions...).
			Value(&a.Model),
		huh.NewInput().
			Title("API key environment variable").
			Description("The key itself is never written to the config.").
			Value(&a.APIKeyEnv).
			Validate(validateEnvName),
		huh.NewInput().
			Title("Request timeout").
			Description("Duration such as 30s; empty for none.").
			Value(&a.Timeout).
			Validate(validateTimeout),
	)).Run(); err != nil {
		return a, err
	}

	return a, nil
}

func validateEnvName(s string) error {
	if s == "" {
		return errors.New("required")
	}
	if strings.ContainsAny(s, " ${}") {
		return errors.New("enter the variable name only, e.g. ANTHROPIC_API_KEY")
	}
	return nil
}

func validateTimeout(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("invalid duration")
	}
	return nil
}

func marshalWizardConfig(a wizardAnswers) ([]byte, error) {
	if _, _, err := catalog.Resolve(a.Provider, a.Model); err != nil {
		return nil, err
	}
	if err := validateEnvName(a.APIKeyEnv); err != nil {
		return nil, fmt.Errorf("api key variable: %w", err)
	}

	data, err := yaml.Marshal(wizardConfig{
		APIKey:   "${" + a.APIKeyEnv + "}",
		Provider: a.Provider.String(),
		Model:    a.Model.String(),
		Timeout:  a.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return data, nil
}
