// Package settings loads and layers the server's configuration: search
// paths for grammars and queries, per-language overrides, capture-name
// remapping, and downstream language-server launch configuration.
//
// Grounded on teranos-QNTX's am package (Viper-based load/merge/watch),
// generalized from QNTX's flat TOML schema to the wildcard-inheriting,
// two-level maps this spec's settings require.
package settings

// QueryPaths names the three query files a language directory may
// provide, each resolved relative to a searchPath's queries/<id>/ dir.
type QueryPaths struct {
	Highlights string `mapstructure:"highlights"`
	Locals     string `mapstructure:"locals"`
	Injections string `mapstructure:"injections"`
}

// LanguageConfig is one entry of the `languages` map: either a bare
// `queries` string (a directory to resolve all three files from) or an
// explicit per-file QueryPaths, plus an optional parser override path
// and the name of a bridge/languageServers entry this language forwards
// code-intelligence requests to.
type LanguageConfig struct {
	Parser     string      `mapstructure:"parser"`
	Queries    string      `mapstructure:"queries"`
	QueryPaths *QueryPaths `mapstructure:"-"`
	Bridge     string      `mapstructure:"bridge"`
}

// CaptureMapping is one language's (or the wildcard's) three capture
// tables: highlight capture name -> semantic token type/modifier
// string, locals capture name -> scope role, fold capture name -> fold
// kind. An empty string value means "suppress this capture".
type CaptureMapping struct {
	Highlights map[string]string `mapstructure:"highlights"`
	Locals     map[string]string `mapstructure:"locals"`
	Folds      map[string]string `mapstructure:"folds"`
}

// LanguageServerConfig is one `languageServers.<name>` entry.
type LanguageServerConfig struct {
	Cmd                   string         `mapstructure:"cmd"`
	Languages             []string       `mapstructure:"languages"`
	InitializationOptions map[string]any `mapstructure:"initializationOptions"`
	WorkspaceType         string         `mapstructure:"workspaceType"`
}

// Settings is the fully merged configuration snapshot: searchPaths,
// languages (wildcard "_" + per-id), captureMappings (wildcard "_" +
// per-id), languageServers (wildcard "_" + per-name), autoInstall.
type Settings struct {
	SearchPaths      []string                         `mapstructure:"searchPaths"`
	Languages        map[string]LanguageConfig        `mapstructure:"languages"`
	CaptureMappings  map[string]CaptureMapping        `mapstructure:"captureMappings"`
	LanguageServers  map[string]LanguageServerConfig   `mapstructure:"languageServers"`
	AutoInstall      bool                              `mapstructure:"autoInstall"`
}

const wildcardKey = "_"

// ResolvedLanguage returns the effective LanguageConfig for id: the
// wildcard entry overlaid by id's specific entry, field by field (a
// zero-value field in the specific entry does not clear the wildcard's
// value for that field).
func (s *Settings) ResolvedLanguage(id string) LanguageConfig {
	base := s.Languages[wildcardKey]
	specific, ok := s.Languages[id]
	if !ok {
		return base
	}
	merged := base
	if specific.Parser != "" {
		merged.Parser = specific.Parser
	}
	if specific.Queries != "" {
		merged.Queries = specific.Queries
	}
	if specific.QueryPaths != nil {
		merged.QueryPaths = specific.QueryPaths
	}
	if specific.Bridge != "" {
		merged.Bridge = specific.Bridge
	}
	return merged
}

// ResolvedCaptureMapping returns the effective CaptureMapping for id:
// the wildcard's three tables deep-merged with id's own, key by key,
// with id's keys winning — including an explicit empty-string value,
// which suppresses a capture the wildcard mapped.
func (s *Settings) ResolvedCaptureMapping(id string) CaptureMapping {
	base := s.CaptureMappings[wildcardKey]
	specific := s.CaptureMappings[id]
	return CaptureMapping{
		Highlights: mergeStringMap(base.Highlights, specific.Highlights),
		Locals:     mergeStringMap(base.Locals, specific.Locals),
		Folds:      mergeStringMap(base.Folds, specific.Folds),
	}
}

// ResolvedLanguageServer returns the effective LanguageServerConfig for
// name: the wildcard overlaid by name's specific entry field by field,
// with InitializationOptions deep-merged leaf by leaf (overlay wins per
// key) rather than replaced wholesale.
func (s *Settings) ResolvedLanguageServer(name string) LanguageServerConfig {
	base := s.LanguageServers[wildcardKey]
	specific, ok := s.LanguageServers[name]
	if !ok {
		return base
	}
	merged := base
	if specific.Cmd != "" {
		merged.Cmd = specific.Cmd
	}
	if len(specific.Languages) > 0 {
		merged.Languages = specific.Languages
	}
	if specific.WorkspaceType != "" {
		merged.WorkspaceType = specific.WorkspaceType
	}
	merged.InitializationOptions = deepMergeJSON(base.InitializationOptions, specific.InitializationOptions)
	return merged
}

func mergeStringMap(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// deepMergeJSON merges two JSON-object-shaped maps recursively, overlay
// winning per leaf key. Nested maps merge; any other value (including
// slices) is replaced wholesale by the overlay's value when present.
func deepMergeJSON(base, overlay map[string]any) map[string]any {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, ov := range overlay {
		bv, exists := merged[k]
		if !exists {
			merged[k] = ov
			continue
		}
		bm, bok := bv.(map[string]any)
		om, ook := ov.(map[string]any)
		if bok && ook {
			merged[k] = deepMergeJSON(bm, om)
		} else {
			merged[k] = ov
		}
	}
	return merged
}
