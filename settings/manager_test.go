package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectConfig_FindsFileInStartDir(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "treesitter-ls.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(""), 0o644))

	got := FindProjectConfig(dir)
	assert.Equal(t, cfgPath, got)
}

func TestFindProjectConfig_WalksUpToAncestorDir(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "treesitter-ls.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(""), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got := FindProjectConfig(nested)
	assert.Equal(t, cfgPath, got)
}

func TestFindProjectConfig_ReturnsEmptyWhenNoneFound(t *testing.T) {
	dir := t.TempDir()
	got := FindProjectConfig(dir)
	assert.Empty(t, got)
}

func TestUserConfigPath_HonorsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")

	got := UserConfigPath()
	assert.Equal(t, filepath.Join("/custom/xdg", "treesitter-ls", "settings.toml"), got)
}

func TestUserConfigPath_FallsBackToHomeDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got := UserConfigPath()
	assert.Equal(t, filepath.Join(home, ".config", "treesitter-ls", "settings.toml"), got)
}
