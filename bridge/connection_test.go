package bridge

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimCRLF_StripsTrailingCRLF(t *testing.T) {
	assert.Equal(t, "Content-Length: 42", trimCRLF("Content-Length: 42\r\n"))
	assert.Equal(t, "Content-Length: 42", trimCRLF("Content-Length: 42\n"))
	assert.Equal(t, "", trimCRLF("\r\n"))
	assert.Equal(t, "no newline", trimCRLF("no newline"))
}

func TestReadHeaders_ParsesContentLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 123\r\n\r\n"))

	n, err := readHeaders(r)
	require.NoError(t, err)
	assert.Equal(t, 123, n)
}

func TestReadHeaders_SkipsOtherHeaderLines(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Type: application/vscode-jsonrpc; charset=utf-8\r\nContent-Length: 7\r\n\r\n"))

	n, err := readHeaders(r)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestReadHeaders_ErrorsOnTruncatedStream(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 5"))

	_, err := readHeaders(r)
	assert.Error(t, err)
}
