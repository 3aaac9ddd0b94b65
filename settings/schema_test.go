package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvedLanguage_WildcardOverlay(t *testing.T) {
	s := &Settings{
		Languages: map[string]LanguageConfig{
			"_":  {Parser: "default-parser", Bridge: "default-bridge"},
			"go": {Parser: "go-parser"},
		},
	}

	got := s.ResolvedLanguage("go")
	assert.Equal(t, "go-parser", got.Parser)
	assert.Equal(t, "default-bridge", got.Bridge, "unset field in the specific entry keeps the wildcard's value")
}

func TestResolvedLanguage_NoSpecificEntryFallsBackToWildcard(t *testing.T) {
	s := &Settings{
		Languages: map[string]LanguageConfig{
			"_": {Parser: "default-parser"},
		},
	}

	got := s.ResolvedLanguage("rust")
	assert.Equal(t, "default-parser", got.Parser)
}

func TestResolvedCaptureMapping_SuppressesWithEmptyString(t *testing.T) {
	s := &Settings{
		CaptureMappings: map[string]CaptureMapping{
			"_":  {Highlights: map[string]string{"spell": "comment", "keyword": "keyword"}},
			"go": {Highlights: map[string]string{"spell": ""}},
		},
	}

	got := s.ResolvedCaptureMapping("go")
	assert.Equal(t, "", got.Highlights["spell"], "an explicit empty string must suppress the wildcard's capture")
	assert.Equal(t, "keyword", got.Highlights["keyword"])
}

func TestResolvedLanguageServer_DeepMergesInitializationOptions(t *testing.T) {
	s := &Settings{
		LanguageServers: map[string]LanguageServerConfig{
			"_": {
				Cmd: "default-cmd",
				InitializationOptions: map[string]any{
					"settings": map[string]any{"a": 1, "b": 2},
				},
			},
			"gopls": {
				Cmd: "gopls",
				InitializationOptions: map[string]any{
					"settings": map[string]any{"b": 3, "c": 4},
				},
			},
		},
	}

	got := s.ResolvedLanguageServer("gopls")
	assert.Equal(t, "gopls", got.Cmd)

	nested := got.InitializationOptions["settings"].(map[string]any)
	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, 3, nested["b"], "overlay wins per leaf key")
	assert.Equal(t, 4, nested["c"])
}

func TestDeepMergeJSON_ReplacesNonMapValuesWholesale(t *testing.T) {
	base := map[string]any{"flags": []any{"a", "b"}, "nested": map[string]any{"x": 1}}
	overlay := map[string]any{"flags": []any{"c"}, "nested": map[string]any{"y": 2}}

	merged := deepMergeJSON(base, overlay)

	assert.Equal(t, []any{"c"}, merged["flags"])
	nested := merged["nested"].(map[string]any)
	assert.Equal(t, 1, nested["x"])
	assert.Equal(t, 2, nested["y"])
}

func TestMergeStringMap_EmptyInputsReturnNil(t *testing.T) {
	assert.Nil(t, mergeStringMap(nil, nil))
}
