package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectExtension(t *testing.T) {
	id, ok := detectExtension("main.go")
	assert.True(t, ok)
	assert.Equal(t, "go", id)

	id, ok = detectExtension("README.MD")
	assert.True(t, ok)
	assert.Equal(t, "markdown", id)

	_, ok = detectExtension("noext")
	assert.False(t, ok)

	_, ok = detectExtension("file.unknownext")
	assert.False(t, ok)
}

func TestDetectShebang(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantID  string
		wantOK  bool
	}{
		{"direct interpreter", "#!/usr/bin/python3\nprint(1)\n", "python", true},
		{"env indirection", "#!/usr/bin/env node\nconsole.log(1)\n", "javascript", true},
		{"versioned interpreter", "#!/usr/bin/env python3.11\n", "python", true},
		{"no shebang", "print(1)\n", "", false},
		{"unknown interpreter", "#!/usr/bin/foolang\n", "", false},
		{"empty file", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := detectShebang([]byte(tc.content))
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}
