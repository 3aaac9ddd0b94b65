package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_StringUsesDevFormatWhenVersionUnset(t *testing.T) {
	info := Info{Version: "dev", CommitHash: "abc123", BuildTime: "2026-01-01"}
	assert.Equal(t, "treesitter-ls dev (commit abc123, built 2026-01-01)", info.String())
}

func TestInfo_StringUsesReleaseFormatWhenVersionSet(t *testing.T) {
	info := Info{Version: "1.2.3", CommitHash: "abc123", BuildTime: "2026-01-01"}
	assert.Equal(t, "treesitter-ls 1.2.3 (commit abc123, built 2026-01-01)", info.String())
}

func TestGet_PopulatesPlatformAndGoVersion(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
