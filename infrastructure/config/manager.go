package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"clip-editor/domain/filter"
	"clip-editor/domain/video"
)

// Errors for config management
var (
	ErrFilterNotEnabled = errors.New("filter not enabled")
	ErrDuplicateKey     = errors.New("key already exists")
)

// ConfigManager provides edit operations for config entries, saving after each change
type ConfigManager struct {
	config     *Config
	configPath string
	catalog    *filter.Catalog
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
		catalog:    filter.DefaultCatalog(),
	}
}

// --- Filters ---

// EnabledFilters returns the IDs offered to the user, in catalog order
func (m *ConfigManager) EnabledFilters() ([]filter.ID, error) {
	c, err := m.catalog.Restrict(m.config.Filters.Enabled)
	if err != nil {
		return nil, err
	}
	return c.IDs(), nil
}

// EnableFilter adds a filter to the enabled list. With an empty list every
// filter is already enabled, so the first call narrows the catalog to id.
func (m *ConfigManager) EnableFilter(id string) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if _, err := m.catalog.Lookup(filter.ID(id)); err != nil {
		return err
	}

	for _, existing := range m.config.Filters.Enabled {
		if existing == id {
			return fmt.Errorf("%w: filter %q", ErrDuplicateKey, id)
		}
	}

	m.config.Filters.Enabled = append(m.config.Filters.Enabled, id)
	sort.Strings(m.config.Filters.Enabled)
	return Save(m.config, m.configPath)
}

// DisableFilter removes a filter from the enabled list
func (m *ConfigManager) DisableFilter(id string) error {
	id = strings.ToLower(strings.TrimSpace(id))

	if len(m.config.Filters.Enabled) == 0 {
		// every filter is enabled; materialize the list minus id
		if _, err := m.catalog.Lookup(filter.ID(id)); err != nil {
			return err
		}
		for _, fid := range m.catalog.IDs() {
			if string(fid) != id {
				m.config.Filters.Enabled = append(m.config.Filters.Enabled, string(fid))
			}
		}
		return Save(m.config, m.configPath)
	}

	kept := m.config.Filters.Enabled[:0]
	found := false
	for _, existing := range m.config.Filters.Enabled {
		if existing == id {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrFilterNotEnabled, id)
	}
	if len(kept) == 0 {
		return fmt.Errorf("cannot disable %q: at least one filter must stay enabled", id)
	}

	m.config.Filters.Enabled = kept
	return Save(m.config, m.configPath)
}

// --- Export settings ---

// SetPreset validates and stores the export preset
func (m *ConfigManager) SetPreset(preset string) error {
	p, err := video.ParsePreset(preset)
	if err != nil {
		return err
	}
	m.config.Export.Preset = string(p)
	return Save(m.config, m.configPath)
}

// SetExportDirectory stores the directory exports are written to
func (m *ConfigManager) SetExportDirectory(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fmt.Errorf("export directory is required")
	}
	m.config.Paths.ExportDirectory = dir
	return Save(m.config, m.configPath)
}

// SetImportDirectory stores the directory the picker lists clips from
func (m *ConfigManager) SetImportDirectory(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fmt.Errorf("import directory is required")
	}
	m.config.Paths.ImportDirectory = dir
	return Save(m.config, m.configPath)
}
