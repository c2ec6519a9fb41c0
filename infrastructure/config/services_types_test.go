package config

import (
	"sort"
	"testing"
)

func TestSuiteConfigIsEnabled(t *testing.T) {
	cfg := &SuiteConfig{
		Suites: map[string]*SuiteSettings{
			"enabled-suite":  {Enabled: true},
			"disabled-suite": {Enabled: false},
		},
	}

	t.Run("enabled suite", func(t *testing.T) {
		if !cfg.IsEnabled("enabled-suite") {
			t.Error("IsEnabled() should return true for enabled suite")
		}
	})

	t.Run("disabled suite", func(t *testing.T) {
		if cfg.IsEnabled("disabled-suite") {
			t.Error("IsEnabled() should return false for disabled suite")
		}
	})

	t.Run("nonexistent suite", func(t *testing.T) {
		if cfg.IsEnabled("nonexistent") {
			t.Error("IsEnabled() should return false for nonexistent suite")
		}
	})

	t.Run("nil config", func(t *testing.T) {
		var nilCfg *SuiteConfig
		if nilCfg.IsEnabled("any") {
			t.Error("IsEnabled() should return false for nil config")
		}
	})

	t.Run("nil suites map", func(t *testing.T) {
		emptyCfg := &SuiteConfig{Suites: nil}
		if emptyCfg.IsEnabled("any") {
			t.Error("IsEnabled() should return false for nil suites map")
		}
	})
}

func TestSuiteConfigGetSettings(t *testing.T) {
	cfg := &SuiteConfig{
		Suites: map[string]*SuiteSettings{
			"test-suite": {Enabled: true, Tags: []string{"smoke"}, Description: "Test"},
		},
	}

	t.Run("existing suite", func(t *testing.T) {
		settings := cfg.GetSettings("test-suite")
		if settings == nil {
			t.Fatal("GetSettings() returned nil for existing suite")
		}
		if len(settings.Tags) != 1 || settings.Tags[0] != "smoke" {
			t.Errorf("Tags = %v, want [smoke]", settings.Tags)
		}
		if settings.Description != "Test" {
			t.Errorf("Description = %s, want Test", settings.Description)
		}
	})

	t.Run("nonexistent suite", func(t *testing.T) {
		settings := cfg.GetSettings("nonexistent")
		if settings != nil {
			t.Error("GetSettings() should return nil for nonexistent suite")
		}
	})

	t.Run("nil config", func(t *testing.T) {
		var nilCfg *SuiteConfig
		settings := nilCfg.GetSettings("any")
		if settings != nil {
			t.Error("GetSettings() should return nil for nil config")
		}
	})

	t.Run("nil suites map", func(t *testing.T) {
		emptyCfg := &SuiteConfig{Suites: nil}
		settings := emptyCfg.GetSettings("any")
		if settings != nil {
			t.Error("GetSettings() should return nil for nil suites map")
		}
	})
}

func TestSuiteConfigEnabledSuites(t *testing.T) {
	cfg := &SuiteConfig{
		Suites: map[string]*SuiteSettings{
			"suite-a": {Enabled: true},
			"suite-b": {Enabled: false},
			"suite-c": {Enabled: true},
			"suite-d": {Enabled: false},
		},
	}

	t.Run("returns enabled suites", func(t *testing.T) {
		enabled := cfg.EnabledSuites()
		if len(enabled) != 2 {
			t.Fatalf("len(EnabledSuites()) = %d, want 2", len(enabled))
		}
		sort.Strings(enabled)
		if enabled[0] != "suite-a" || enabled[1] != "suite-c" {
			t.Errorf("EnabledSuites() = %v, want [suite-a suite-c]", enabled)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		var nilCfg *SuiteConfig
		enabled := nilCfg.EnabledSuites()
		if enabled != nil {
			t.Error("EnabledSuites() should return nil for nil config")
		}
	})

	t.Run("nil suites map", func(t *testing.T) {
		emptyCfg := &SuiteConfig{Suites: nil}
		enabled := emptyCfg.EnabledSuites()
		if enabled != nil {
			t.Error("EnabledSuites() should return nil for nil suites map")
		}
	})

	t.Run("all disabled", func(t *testing.T) {
		allDisabled := &SuiteConfig{
			Suites: map[string]*SuiteSettings{
				"suite-x": {Enabled: false},
			},
		}
		enabled := allDisabled.EnabledSuites()
		if len(enabled) != 0 {
			t.Errorf("EnabledSuites() = %v, want empty", enabled)
		}
	})
}

func TestSuiteConfigDisabledSuites(t *testing.T) {
	cfg := &SuiteConfig{
		Suites: map[string]*SuiteSettings{
			"suite-a": {Enabled: true},
			"suite-b": {Enabled: false},
			"suite-c": {Enabled: true},
			"suite-d": {Enabled: false},
		},
	}

	t.Run("returns disabled suites", func(t *testing.T) {
		disabled := cfg.DisabledSuites()
		if len(disabled) != 2 {
			t.Fatalf("len(DisabledSuites()) = %d, want 2", len(disabled))
		}
		sort.Strings(disabled)
		if disabled[0] != "suite-b" || disabled[1] != "suite-d" {
			t.Errorf("DisabledSuites() = %v, want [suite-b suite-d]", disabled)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		var nilCfg *SuiteConfig
		disabled := nilCfg.DisabledSuites()
		if disabled != nil {
			t.Error("DisabledSuites() should return nil for nil config")
		}
	})

	t.Run("nil suites map", func(t *testing.T) {
		emptyCfg := &SuiteConfig{Suites: nil}
		disabled := emptyCfg.DisabledSuites()
		if disabled != nil {
			t.Error("DisabledSuites() should return nil for nil suites map")
		}
	})

	t.Run("all enabled", func(t *testing.T) {
		allEnabled := &SuiteConfig{
			Suites: map[string]*SuiteSettings{
				"suite-x": {Enabled: true},
			},
		}
		disabled := allEnabled.DisabledSuites()
		if len(disabled) != 0 {
			t.Errorf("DisabledSuites() = %v, want empty", disabled)
		}
	})
}

func TestSuiteSettingsStruct(t *testing.T) {
	settings := SuiteSettings{
		Enabled:     true,
		Tags:        []string{"smoke", "rest"},
		Description: "Test suite",
		Extra: map[string]any{
			"key": "value",
		},
	}

	if !settings.Enabled {
		t.Error("Enabled should be true")
	}
	if len(settings.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 entries", settings.Tags)
	}
	if settings.Description != "Test suite" {
		t.Errorf("Description = %s, want 'Test suite'", settings.Description)
	}
	if settings.Extra["key"] != "value" {
		t.Error("Extra map not set correctly")
	}
}
