package settings

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/viper"

	"github.com/teranos/treesitter-ls/errors"
)

// Manager holds the current merged Settings as an atomically-swapped
// snapshot, so readers never take a lock and never observe a
// partially-applied reload.
//
// Grounded on teranos-QNTX's am.Load/am.initViper layering, generalized
// from QNTX's single global Viper instance with manual file-merge to a
// Manager carrying one Viper per layer, since this spec's `initialize`
// overrides must participate in the same precedence chain as the file
// layers rather than being bolted on afterward.
type Manager struct {
	defaults *viper.Viper
	userPath string
	projPath string

	current atomic.Pointer[Settings]
}

// NewManager creates a Manager seeded with built-in defaults; call
// Load to read the file layers and compute the first snapshot.
func NewManager() *Manager {
	m := &Manager{defaults: viper.New()}
	setDefaults(m.defaults)
	return m
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("searchPaths", []string{})
	v.SetDefault("languages", map[string]any{})
	v.SetDefault("captureMappings", map[string]any{})
	v.SetDefault("languageServers", map[string]any{})
	v.SetDefault("autoInstall", true)
}

// UserConfigPath returns the conventional per-user settings file path
// (~/.config/treesitter-ls/settings.toml), honoring XDG_CONFIG_HOME.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "treesitter-ls", "settings.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "treesitter-ls", "settings.toml")
}

// FindProjectConfig walks up from dir looking for treesitter-ls.toml,
// mirroring am.findProjectConfig's upward search but for this server's
// own project-config filename.
func FindProjectConfig(dir string) string {
	for {
		candidate := filepath.Join(dir, "treesitter-ls.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads defaults, then the user config file (if present), then
// the project config file found by walking up from workDir, merging in
// that precedence order, and stores the result as the current snapshot.
// initializeOverrides, if non-nil, is applied last (highest precedence):
// defaults < user < project < initialize overrides. Only its autoInstall
// and searchPaths keys are applied (see applyInitializeOverrides).
func (m *Manager) Load(workDir string, initializeOverrides map[string]any) (*Settings, error) {
	merged := viper.New()
	for k, v := range m.defaults.AllSettings() {
		merged.SetDefault(k, v)
	}

	if userPath := UserConfigPath(); userPath != "" {
		if err := mergeFileLayer(merged, userPath); err != nil {
			return nil, errors.Wrapf(err, "load user settings %s", userPath)
		}
		m.userPath = userPath
	}

	if projPath := FindProjectConfig(workDir); projPath != "" {
		if err := mergeFileLayer(merged, projPath); err != nil {
			return nil, errors.Wrapf(err, "load project settings %s", projPath)
		}
		m.projPath = projPath
	}

	var s Settings
	if err := merged.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "unmarshal settings")
	}

	// Viper's Unmarshal replaces maps wholesale per layer rather than
	// deep-merging captureMappings/languageServers the way the
	// wildcard-inheritance rules require, so those two maps are
	// re-merged by hand across the same file layers here.
	if err := m.deepMergeLayeredMaps(&s, workDir); err != nil {
		return nil, err
	}

	if initializeOverrides != nil {
		applyInitializeOverrides(&s, initializeOverrides)
	}

	m.current.Store(&s)
	return &s, nil
}

// Current returns the latest merged snapshot without blocking, or nil
// if Load has never succeeded.
func (m *Manager) Current() *Settings {
	return m.current.Load()
}

func mergeFileLayer(v *viper.Viper, path string) error {
	layer := viper.New()
	layer.SetConfigFile(path)
	if err := layer.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return v.MergeConfigMap(layer.AllSettings())
}

// deepMergeLayeredMaps re-reads each present file layer and recomputes
// captureMappings/languageServers via schema.go's key-by-key merge
// helpers instead of trusting Viper's last-layer-wins map replacement.
func (m *Manager) deepMergeLayeredMaps(s *Settings, workDir string) error {
	layers := []string{}
	if m.userPath != "" {
		layers = append(layers, m.userPath)
	}
	if projPath := FindProjectConfig(workDir); projPath != "" {
		layers = append(layers, projPath)
	}

	captureMappings := map[string]CaptureMapping{}
	languageServers := map[string]LanguageServerConfig{}

	for _, path := range layers {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "re-read settings layer %s", path)
		}
		var layer Settings
		if err := v.Unmarshal(&layer); err != nil {
			return errors.Wrapf(err, "unmarshal settings layer %s", path)
		}
		for k, cm := range layer.CaptureMappings {
			captureMappings[k] = mergeCaptureMapping(captureMappings[k], cm)
		}
		for k, ls := range layer.LanguageServers {
			languageServers[k] = mergeLanguageServerConfig(languageServers[k], ls)
		}
	}

	if len(captureMappings) > 0 {
		s.CaptureMappings = captureMappings
	}
	if len(languageServers) > 0 {
		s.LanguageServers = languageServers
	}
	return nil
}

func mergeCaptureMapping(base, overlay CaptureMapping) CaptureMapping {
	return CaptureMapping{
		Highlights: mergeStringMap(base.Highlights, overlay.Highlights),
		Locals:     mergeStringMap(base.Locals, overlay.Locals),
		Folds:      mergeStringMap(base.Folds, overlay.Folds),
	}
}

func mergeLanguageServerConfig(base, overlay LanguageServerConfig) LanguageServerConfig {
	merged := base
	if overlay.Cmd != "" {
		merged.Cmd = overlay.Cmd
	}
	if len(overlay.Languages) > 0 {
		merged.Languages = overlay.Languages
	}
	if overlay.WorkspaceType != "" {
		merged.WorkspaceType = overlay.WorkspaceType
	}
	merged.InitializationOptions = deepMergeJSON(base.InitializationOptions, overlay.InitializationOptions)
	return merged
}

// applyInitializeOverrides applies the client's `initializationOptions`
// payload (already decoded to a plain map by the caller) over the
// file-derived settings, the highest-precedence layer of the merge
// chain. Only the autoInstall and searchPaths keys are read; languages,
// captureMappings and languageServers in the payload are ignored.
func applyInitializeOverrides(s *Settings, overrides map[string]any) {
	if v, ok := overrides["autoInstall"].(bool); ok {
		s.AutoInstall = v
	}
	if v, ok := overrides["searchPaths"].([]any); ok {
		paths := make([]string, 0, len(v))
		for _, p := range v {
			if str, ok := p.(string); ok {
				paths = append(paths, str)
			}
		}
		s.SearchPaths = paths
	}
}
