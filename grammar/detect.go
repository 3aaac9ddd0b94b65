package grammar

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// extensionTable maps a lower-cased file extension (without the dot) to a
// language id. This intentionally covers a broad but not exhaustive set;
// unknown extensions simply fail detection and the caller falls back to
// "plaintext" handling upstream.
var extensionTable = map[string]string{
	"go":     "go",
	"py":     "python",
	"rs":     "rust",
	"js":     "javascript",
	"mjs":    "javascript",
	"jsx":    "javascript",
	"ts":     "typescript",
	"tsx":    "tsx",
	"rb":     "ruby",
	"sh":     "bash",
	"bash":   "bash",
	"zsh":    "bash",
	"md":     "markdown",
	"markdown": "markdown",
	"lua":    "lua",
	"c":      "c",
	"h":      "c",
	"cpp":    "cpp",
	"cc":     "cpp",
	"hpp":    "cpp",
	"cs":     "c_sharp",
	"java":   "java",
	"yaml":   "yaml",
	"yml":    "yaml",
	"json":   "json",
	"toml":   "toml",
	"html":   "html",
	"css":    "css",
	"vim":    "vim",
}

// interpreterTable maps the interpreter named by a shebang's first token
// (after stripping a leading "/usr/bin/env") to a language id.
var interpreterTable = map[string]string{
	"python":  "python",
	"python3": "python",
	"bash":    "bash",
	"sh":      "bash",
	"zsh":     "bash",
	"node":    "javascript",
	"ruby":    "ruby",
	"lua":     "lua",
	"perl":    "perl",
}

// detectExtension resolves a language id from path's extension.
func detectExtension(path string) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", false
	}
	id, ok := extensionTable[ext]
	return id, ok
}

// detectShebang inspects the first line of content for a "#!" shebang,
// handling both "#!/usr/bin/python3" and "#!/usr/bin/env python3" forms.
func detectShebang(content []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	if !scanner.Scan() {
		return "", false
	}
	line := scanner.Text()
	if !strings.HasPrefix(line, "#!") {
		return "", false
	}

	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return "", false
	}

	interpreter := filepath.Base(fields[0])
	if interpreter == "env" && len(fields) > 1 {
		interpreter = filepath.Base(fields[1])
	}

	// Strip every trailing digit and dot: "python3.11" and "python3"
	// both become "python".
	interpreter = strings.TrimRightFunc(interpreter, func(r rune) bool {
		return r == '.' || (r >= '0' && r <= '9')
	})

	id, ok := interpreterTable[interpreter]
	return id, ok
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
