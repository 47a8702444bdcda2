package config

import (
	"fmt"
	"os"

	"github.com/dgnsrekt/tabcore/internal/urlpolicy"
	"gopkg.in/yaml.v3"
)

// StartupTab describes a single tab to open at startup.
type StartupTab struct {
	URL      string       `yaml:"url"`
	Active   bool         `yaml:"active"`
	Children []StartupTab `yaml:"children"`
}

// StartupTabsConfig is the top-level YAML configuration for startup tabs.
type StartupTabsConfig struct {
	Tabs []StartupTab `yaml:"tabs"`
}

// LoadStartupTabs reads and validates a startup tabs YAML file.
// Returns an os.ErrNotExist-wrapped error if the file is absent (caller
// silently skips in that case).
func LoadStartupTabs(path string) (*StartupTabsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("startup_tabs config: %w", err)
	}
	var cfg StartupTabsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("startup_tabs config: %w", err)
	}
	if len(cfg.Tabs) < 1 {
		return nil, fmt.Errorf("startup_tabs config: at least one tab entry is required")
	}
	if err := validateTabs(cfg.Tabs, "tabs"); err != nil {
		return nil, err
	}
	active := 0
	walkTabs(cfg.Tabs, func(t StartupTab) {
		if t.Active {
			active++
		}
	})
	if active > 1 {
		return nil, fmt.Errorf("startup_tabs config: %d tabs marked active, at most one allowed", active)
	}
	return &cfg, nil
}

func validateTabs(tabs []StartupTab, path string) error {
	for i, t := range tabs {
		if t.URL == "" {
			return fmt.Errorf("startup_tabs config: %s[%d] missing url", path, i)
		}
		if !urlpolicy.Safe(t.URL) {
			return fmt.Errorf("startup_tabs config: %s[%d] url %q is not allowed", path, i, t.URL)
		}
		if err := validateTabs(t.Children, fmt.Sprintf("%s[%d].children", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func walkTabs(tabs []StartupTab, fn func(StartupTab)) {
	for _, t := range tabs {
		fn(t)
		walkTabs(t.Children, fn)
	}
}
