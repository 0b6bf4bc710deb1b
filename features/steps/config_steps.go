//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clip-editor/cmd"
	"clip-editor/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	config     *config.Config
	output     *bytes.Buffer
	err        error
}

var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.output = &bytes.Buffer{}
		testCtx.config = nil
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a config file with no filter restrictions$`, testCtx.aConfigFileWithNoFilterRestrictions)
	ctx.Step(`^a config file enabling filters "([^"]*)"$`, testCtx.aConfigFileEnablingFilters)
	ctx.Step(`^I run config show$`, testCtx.iRunConfigShow)
	ctx.Step(`^I run config filters$`, testCtx.iRunConfigFilters)
	ctx.Step(`^I run config enable "([^"]*)"$`, testCtx.iRunConfigEnable)
	ctx.Step(`^I run config disable "([^"]*)"$`, testCtx.iRunConfigDisable)
	ctx.Step(`^I run config set "([^"]*)" to "([^"]*)"$`, testCtx.iRunConfigSet)
	ctx.Step(`^the config output should contain "([^"]*)"$`, testCtx.theConfigOutputShouldContain)
	ctx.Step(`^the config output should not contain "([^"]*)"$`, testCtx.theConfigOutputShouldNotContain)
	ctx.Step(`^the saved enabled filters should be "([^"]*)"$`, testCtx.theSavedEnabledFiltersShouldBe)
	ctx.Step(`^the saved preset should be "([^"]*)"$`, testCtx.theSavedPresetShouldBe)
	ctx.Step(`^the saved export directory should be "([^"]*)"$`, testCtx.theSavedExportDirectoryShouldBe)
	ctx.Step(`^the config command should fail with "([^"]*)"$`, testCtx.theConfigCommandShouldFailWith)
}

func (s *configContext) writeConfig(enabled []string) error {
	cfg := config.Default()
	cfg.Paths.ImportDirectory = "/media/camera"
	cfg.Paths.ExportDirectory = "/home/me/exports"
	cfg.Filters.Enabled = enabled
	if err := config.Save(cfg, s.configPath); err != nil {
		return err
	}
	s.config = cfg
	return nil
}

func (s *configContext) aConfigFileWithNoFilterRestrictions() error {
	return s.writeConfig(nil)
}

func (s *configContext) aConfigFileEnablingFilters(list string) error {
	return s.writeConfig(splitList(list))
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s *configContext) iRunConfigShow() error {
	s.err = cmd.RunConfigShowWithDependencies(s.config, s.output)
	return nil
}

func (s *configContext) iRunConfigFilters() error {
	s.err = cmd.RunConfigFiltersWithDependencies(s.config, s.configPath, s.output)
	return nil
}

func (s *configContext) iRunConfigEnable(id string) error {
	s.err = cmd.RunConfigEnableWithDependencies(s.config, s.configPath, id, s.output)
	return nil
}

func (s *configContext) iRunConfigDisable(id string) error {
	s.err = cmd.RunConfigDisableWithDependencies(s.config, s.configPath, id, s.output)
	return nil
}

func (s *configContext) iRunConfigSet(key, value string) error {
	s.err = cmd.RunConfigSetWithDependencies(s.config, s.configPath, key, value, s.output)
	return nil
}

func (s *configContext) theConfigOutputShouldContain(expected string) error {
	if s.err != nil {
		return fmt.Errorf("unexpected error: %v", s.err)
	}
	if !strings.Contains(s.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, s.output.String())
	}
	return nil
}

func (s *configContext) theConfigOutputShouldNotContain(unexpected string) error {
	if strings.Contains(s.output.String(), unexpected) {
		return fmt.Errorf("expected output not to contain %q, got:\n%s", unexpected, s.output.String())
	}
	return nil
}

func (s *configContext) reload() (*config.Config, error) {
	if s.err != nil {
		return nil, fmt.Errorf("unexpected error: %v", s.err)
	}
	return config.Load(s.configPath)
}

func (s *configContext) theSavedEnabledFiltersShouldBe(expected string) error {
	cfg, err := s.reload()
	if err != nil {
		return err
	}
	got := strings.Join(cfg.Filters.Enabled, ", ")
	if got != strings.Join(splitList(expected), ", ") {
		return fmt.Errorf("expected enabled filters %q, got %q", expected, got)
	}
	return nil
}

func (s *configContext) theSavedPresetShouldBe(expected string) error {
	cfg, err := s.reload()
	if err != nil {
		return err
	}
	if cfg.Export.Preset != expected {
		return fmt.Errorf("expected preset %q, got %q", expected, cfg.Export.Preset)
	}
	return nil
}

func (s *configContext) theSavedExportDirectoryShouldBe(expected string) error {
	cfg, err := s.reload()
	if err != nil {
		return err
	}
	if cfg.Paths.ExportDirectory != expected {
		return fmt.Errorf("expected export directory %q, got %q", expected, cfg.Paths.ExportDirectory)
	}
	return nil
}

func (s *configContext) theConfigCommandShouldFailWith(expected string) error {
	if s.err == nil {
		return fmt.Errorf("expected error containing %q, got nil", expected)
	}
	if !strings.Contains(s.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got: %v", expected, s.err)
	}
	return nil
}
