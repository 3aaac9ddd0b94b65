package grammar

import (
	"os"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// QueryLoader reads compiled queries from "<searchPath>/queries/<id>/
// {highlights,locals,injections}.scm", supporting an "; inherits:
// <id1>,<id2>" header comment that concatenates the named languages'
// queries of the same kind before the current file's own patterns.
type QueryLoader struct {
	searchPaths []string
}

func NewQueryLoader(searchPaths []string) *QueryLoader {
	return &QueryLoader{searchPaths: searchPaths}
}

// Load compiles the named query kind ("highlights", "locals",
// "injections") for language id against its already-loaded grammar. A
// missing file is not an error: the query is simply absent. A query
// parse error likewise yields no query, reported as an Event.
func (l *QueryLoader) Load(id, kind string, lang *tree_sitter.Language) (*tree_sitter.Query, []Event) {
	source, ok := l.readInherited(id, kind, make(map[string]bool))
	if !ok {
		return nil, nil
	}

	query, queryErr := tree_sitter.NewQuery(lang, source)
	if queryErr != nil {
		return nil, []Event{{LanguageID: id, Message: "query parse error (" + kind + "): " + queryErr.Error()}}
	}
	return query, nil
}

// readInherited resolves the raw query source text for (id, kind),
// recursively prepending inherited languages' query text first. visiting
// guards against inheritance cycles: a language that (directly or
// transitively) inherits from itself is short-circuited rather than
// looping forever.
func (l *QueryLoader) readInherited(id, kind string, visiting map[string]bool) (string, bool) {
	if visiting[id] {
		return "", false
	}
	visiting[id] = true

	path, ok := l.findQueryFile(id, kind)
	if !ok {
		return "", false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	text := string(raw)
	inherited := parseInheritsHeader(text)

	var builder strings.Builder
	for _, parentID := range inherited {
		if parentText, ok := l.readInherited(parentID, kind, visiting); ok {
			builder.WriteString(parentText)
			builder.WriteString("\n")
		}
	}
	builder.WriteString(text)

	return builder.String(), true
}

func (l *QueryLoader) findQueryFile(id, kind string) (string, bool) {
	name := kind + ".scm"
	for _, root := range l.searchPaths {
		candidate := filepath.Join(root, "queries", id, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// parseInheritsHeader looks for a leading "; inherits: id1,id2" comment
// line and returns the referenced language ids in order.
func parseInheritsHeader(text string) []string {
	const prefix = "; inherits:"
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ";") {
			// The header must come before the first non-comment line.
			return nil
		}
		if strings.HasPrefix(trimmed, prefix) {
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
			var ids []string
			for _, id := range strings.Split(rest, ",") {
				id = strings.TrimSpace(id)
				if id != "" {
					ids = append(ids, id)
				}
			}
			return ids
		}
		// Some other leading comment line; keep scanning until a
		// non-comment line ends the header region.
	}
	return nil
}
