package grammar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQueryFile(t *testing.T, root, lang, kind, content string) {
	t.Helper()
	dir := filepath.Join(root, "queries", lang)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, kind+".scm"), []byte(content), 0o644))
}

func TestReadInherited_NoInheritance(t *testing.T) {
	root := t.TempDir()
	writeQueryFile(t, root, "go", "highlights", "(identifier) @variable\n")

	loader := NewQueryLoader([]string{root})
	got, ok := loader.readInherited("go", "highlights", make(map[string]bool))

	require.True(t, ok)
	assert.Equal(t, "(identifier) @variable\n", got)
}

func TestReadInherited_ConcatenatesInheritedFirst(t *testing.T) {
	root := t.TempDir()
	writeQueryFile(t, root, "c", "highlights", "(identifier) @variable\n")
	writeQueryFile(t, root, "cpp", "highlights", "; inherits: c\n(class_specifier) @type\n")

	loader := NewQueryLoader([]string{root})
	got, ok := loader.readInherited("cpp", "highlights", make(map[string]bool))

	require.True(t, ok)
	assert.Contains(t, got, "(identifier) @variable")
	assert.Contains(t, got, "(class_specifier) @type")
	assert.Less(t,
		indexOf(got, "(identifier) @variable"),
		indexOf(got, "(class_specifier) @type"),
		"inherited query text must come before the child's own patterns",
	)
}

func TestReadInherited_CycleDoesNotLoop(t *testing.T) {
	root := t.TempDir()
	writeQueryFile(t, root, "a", "highlights", "; inherits: b\n(foo) @a\n")
	writeQueryFile(t, root, "b", "highlights", "; inherits: a\n(bar) @b\n")

	loader := NewQueryLoader([]string{root})

	// The visiting guard makes this terminate deterministically; a
	// regression here would hang the test (and the real server) rather
	// than fail an assertion.
	got, ok := loader.readInherited("a", "highlights", make(map[string]bool))

	require.True(t, ok)
	assert.Contains(t, got, "(foo) @a")
}

func TestReadInherited_MissingFileIsNotError(t *testing.T) {
	root := t.TempDir()

	loader := NewQueryLoader([]string{root})
	_, ok := loader.readInherited("nonexistent", "highlights", make(map[string]bool))

	assert.False(t, ok)
}

func TestParseInheritsHeader(t *testing.T) {
	assert.Equal(t, []string{"c"}, parseInheritsHeader("; inherits: c\n(foo) @a\n"))
	assert.Equal(t, []string{"c", "cpp"}, parseInheritsHeader("; inherits: c,cpp\n"))
	assert.Nil(t, parseInheritsHeader("(foo) @a\n"))
	assert.Nil(t, parseInheritsHeader("; just a comment\n(foo) @a\n"))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

