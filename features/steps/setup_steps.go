//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clip-editor/cmd"
	"clip-editor/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	originalContent string
	output          strings.Builder
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements prompt.Prompter with scripted answers
type MockPrompter struct {
	inputResponses   []string
	confirmResponses []bool
	selectResponses  []string
	inputIndex       int
	confirmIndex     int
	selectIndex      int
}

func NewMockPrompter(inputs []string, confirms []bool, selects []string) *MockPrompter {
	return &MockPrompter{
		inputResponses:   inputs,
		confirmResponses: confirms,
		selectResponses:  selects,
	}
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if m.inputIndex >= len(m.inputResponses) {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", fmt.Errorf("no more input responses available for message: %s", message)
	}
	response := m.inputResponses[m.inputIndex]
	m.inputIndex++
	if response == "" {
		return defaultValue, nil
	}
	return response, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if m.confirmIndex >= len(m.confirmResponses) {
		return defaultValue, nil
	}
	response := m.confirmResponses[m.confirmIndex]
	m.confirmIndex++
	return response, nil
}

func (m *MockPrompter) Select(message string, options []string) (string, error) {
	if m.selectIndex >= len(m.selectResponses) {
		if len(options) == 0 {
			return "", fmt.Errorf("no options for message: %s", message)
		}
		return options[0], nil
	}
	response := m.selectResponses[m.selectIndex]
	m.selectIndex++
	for _, opt := range options {
		if opt == response {
			return response, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", response, options)
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSetupContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config", "config.yaml")
		testCtx.originalContent = ""
		testCtx.output.Reset()
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, testCtx.noConfigFileExistsForSetup)
	ctx.Step(`^a config file already exists for setup$`, testCtx.aConfigFileAlreadyExistsForSetup)
	ctx.Step(`^I run the setup command with inputs:$`, testCtx.iRunTheSetupCommandWithInputs)
	ctx.Step(`^I run the setup command with confirmation "([^"]*)"$`, testCtx.iRunTheSetupCommandWithConfirmation)
	ctx.Step(`^a config file should exist$`, testCtx.aConfigFileShouldExist)
	ctx.Step(`^the config should have import_directory "([^"]*)"$`, testCtx.theConfigShouldHaveImportDirectory)
	ctx.Step(`^the config should have export_directory "([^"]*)"$`, testCtx.theConfigShouldHaveExportDirectory)
	ctx.Step(`^the config should have preset "([^"]*)"$`, testCtx.theConfigShouldHavePreset)
	ctx.Step(`^the config should have a (\d+)x(\d+) preview$`, testCtx.theConfigShouldHavePreview)
	ctx.Step(`^the config should have exports_folder_id "([^"]*)"$`, testCtx.theConfigShouldHaveExportsFolderID)
	ctx.Step(`^the config should have token_file "([^"]*)"$`, testCtx.theConfigShouldHaveTokenFile)
	ctx.Step(`^Google Drive should not be configured$`, testCtx.googleDriveShouldNotBeConfigured)
	ctx.Step(`^the setup should fail with "([^"]*)"$`, testCtx.theSetupShouldFailWith)
	ctx.Step(`^the setup should be cancelled$`, testCtx.theSetupShouldBeCancelled)
	ctx.Step(`^the existing config should be unchanged$`, testCtx.theExistingConfigShouldBeUnchanged)
}

func (s *setupContext) noConfigFileExistsForSetup() error {
	return os.MkdirAll(filepath.Dir(s.configPath), 0755)
}

func (s *setupContext) aConfigFileAlreadyExistsForSetup() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}

	content := `paths:
  import_directory: "/original/import"
  export_directory: "/original/export"
export:
  preset: "medium"
  container: "mp4"
`
	s.originalContent = content
	return os.WriteFile(s.configPath, []byte(content), 0644)
}

func (s *setupContext) iRunTheSetupCommandWithInputs(table *godog.Table) error {
	inputs, confirms, selects := parseInputTable(table)
	if s.originalContent != "" {
		confirms = append([]bool{true}, confirms...)
	}
	prompter := NewMockPrompter(inputs, confirms, selects)

	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, &s.output)
	return nil
}

func (s *setupContext) iRunTheSetupCommandWithConfirmation(confirmation string) error {
	confirm := strings.ToLower(confirmation) == "y"
	prompter := NewMockPrompter(nil, []bool{confirm}, nil)

	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, &s.output)
	return nil
}

// parseInputTable splits a | prompt | value | table by prompt kind. Prompts
// named "publish" or "oauth" are confirmations, "preset" is a selection and
// everything else is free text.
func parseInputTable(table *godog.Table) ([]string, []bool, []string) {
	var inputs []string
	var confirms []bool
	var selects []string

	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		prompt := strings.ToLower(row.Cells[0].Value)
		value := row.Cells[1].Value

		switch {
		case strings.HasPrefix(prompt, "publish"), strings.HasPrefix(prompt, "oauth"):
			confirms = append(confirms, strings.ToLower(value) == "y")
		case prompt == "preset":
			selects = append(selects, value)
		default:
			inputs = append(inputs, value)
		}
	}

	return inputs, confirms, selects
}

func (s *setupContext) loadConfig() (*config.Config, error) {
	if s.err != nil {
		return nil, fmt.Errorf("setup command failed: %w", s.err)
	}
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (s *setupContext) aConfigFileShouldExist() error {
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist at %s", s.configPath)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveImportDirectory(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Paths.ImportDirectory != expected {
		return fmt.Errorf("expected import_directory %q, got %q", expected, cfg.Paths.ImportDirectory)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveExportDirectory(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Paths.ExportDirectory != expected {
		return fmt.Errorf("expected export_directory %q, got %q", expected, cfg.Paths.ExportDirectory)
	}
	return nil
}

func (s *setupContext) theConfigShouldHavePreset(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Export.Preset != expected {
		return fmt.Errorf("expected preset %q, got %q", expected, cfg.Export.Preset)
	}
	return nil
}

func (s *setupContext) theConfigShouldHavePreview(width, height int) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Preview.Width != width || cfg.Preview.Height != height {
		return fmt.Errorf("expected %dx%d preview, got %dx%d", width, height, cfg.Preview.Width, cfg.Preview.Height)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveExportsFolderID(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Google.ExportsFolderID != expected {
		return fmt.Errorf("expected exports_folder_id %q, got %q", expected, cfg.Google.ExportsFolderID)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveTokenFile(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Google.TokenFile != expected {
		return fmt.Errorf("expected token_file %q, got %q", expected, cfg.Google.TokenFile)
	}
	return nil
}

func (s *setupContext) googleDriveShouldNotBeConfigured() error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.DriveConfigured() {
		return fmt.Errorf("expected Google Drive to be unconfigured, got folder %q", cfg.Google.ExportsFolderID)
	}
	return nil
}

func (s *setupContext) theSetupShouldFailWith(expected string) error {
	if s.err == nil {
		return fmt.Errorf("expected setup to fail with %q", expected)
	}
	if !strings.Contains(s.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got: %v", expected, s.err)
	}
	return nil
}

func (s *setupContext) theSetupShouldBeCancelled() error {
	if s.err != nil {
		return fmt.Errorf("unexpected error: %v", s.err)
	}
	if !strings.Contains(s.output.String(), "Setup cancelled.") {
		return fmt.Errorf("expected setup to be cancelled, got:\n%s", s.output.String())
	}
	return nil
}

func (s *setupContext) theExistingConfigShouldBeUnchanged() error {
	content, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if string(content) != s.originalContent {
		return fmt.Errorf("config content was changed")
	}
	return nil
}
