package grammar

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryName_UsesPlatformExtension(t *testing.T) {
	name := libraryName("lua")
	if runtime.GOOS == "darwin" {
		assert.Equal(t, "lua.dylib", name)
	} else {
		assert.Equal(t, "lua.so", name)
	}
}

func TestFindLibrary_ReturnsFirstMatchingSearchPath(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(second, "parser"), 0o755))
	wantPath := filepath.Join(second, "parser", libraryName("lua"))
	require.NoError(t, os.WriteFile(wantPath, []byte{}, 0o644))

	l := NewLoader([]string{first, second})

	got, err := l.findLibrary("lua")
	require.NoError(t, err)
	assert.Equal(t, wantPath, got)
}

func TestFindLibrary_ErrorsWhenNotFoundInAnySearchPath(t *testing.T) {
	l := NewLoader([]string{t.TempDir()})

	_, err := l.findLibrary("nonexistent")
	assert.Error(t, err)
}

func TestFindLibrary_PrefersEarlierSearchPathOnPriorityOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	for _, dir := range []string{first, second} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "parser"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "parser", libraryName("bash")), []byte{}, 0o644))
	}

	l := NewLoader([]string{first, second})

	got, err := l.findLibrary("bash")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "parser", libraryName("bash")), got)
}
