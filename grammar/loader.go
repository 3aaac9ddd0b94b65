package grammar

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/errors"
)

// Loader searches a set of directories for a shared library named
// "<id>.so" (".dylib" on darwin) under each directory's parser/
// subdirectory, dlopen's it with purego, resolves the exported symbol
// "tree_sitter_<id>", and wraps the returned pointer as a
// *tree_sitter.Language. Each library, once mapped, stays mapped for the
// process's lifetime — tree-sitter languages are immutable tables that
// are safe, and cheap, to keep resident.
type Loader struct {
	searchPaths []string
	handles     map[string]uintptr
}

// NewLoader builds a Loader over the given search paths, in priority
// order (first match wins).
func NewLoader(searchPaths []string) *Loader {
	return &Loader{
		searchPaths: searchPaths,
		handles:     make(map[string]uintptr),
	}
}

func libraryName(id string) string {
	ext := ".so"
	if runtime.GOOS == "darwin" {
		ext = ".dylib"
	}
	return id + ext
}

// Load dlopen's the grammar library for id and resolves its exported
// constructor symbol. A missing file is reported with a plain error
// (the registry treats that as an Event, not fatal to the process);
// once the library is found, a symbol-resolution failure is fatal for
// this language id only.
func (l *Loader) Load(_ context.Context, id string) (*tree_sitter.Language, error) {
	libPath, err := l.findLibrary(id)
	if err != nil {
		return nil, err
	}

	handle, err := purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrapf(err, "dlopen grammar library %s", libPath)
	}
	l.handles[id] = handle

	symbol := "tree_sitter_" + id
	sym, err := purego.Dlsym(handle, symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "grammar: symbol %s not found in %s", symbol, libPath)
	}
	var languageFn func() unsafe.Pointer
	purego.RegisterFunc(&languageFn, sym)

	ptr := languageFn()
	if ptr == nil {
		return nil, errors.Newf("grammar: %s returned a null language pointer", symbol)
	}

	return tree_sitter.NewLanguage(ptr), nil
}

func (l *Loader) findLibrary(id string) (string, error) {
	name := libraryName(id)
	for _, root := range l.searchPaths {
		candidate := filepath.Join(root, "parser", name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("grammar: no parser library %q found under configured search paths", name)
}
