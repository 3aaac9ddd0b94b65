package bridge

import (
	"github.com/kballard/go-shellquote"

	"github.com/teranos/treesitter-ls/errors"
)

// SplitCommand splits a languageServers.<name>.cmd configuration string
// into argv, honoring shell quoting so a command like
// `"/opt/my server" --stdio --flag="a b"` is split the way a user
// expects rather than naively on whitespace.
func SplitCommand(cmd string) (argv []string, err error) {
	argv, err = shellquote.Split(cmd)
	if err != nil {
		return nil, errors.Wrapf(err, "parse language server command %q", cmd)
	}
	if len(argv) == 0 {
		return nil, errors.Newf("empty language server command")
	}
	return argv, nil
}
