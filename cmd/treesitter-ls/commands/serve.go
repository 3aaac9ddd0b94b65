package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/treesitter-ls/errors"
	"github.com/teranos/treesitter-ls/logger"
	"github.com/teranos/treesitter-ls/lspserver"
)

// ServeCmd starts the language server over stdio, matching the
// teacher's "aliases + RunE" shape (teranos-QNTX's ServerCmd) but with
// a stdio transport instead of a WebSocket listener, since this server
// talks to exactly one editor client via LSP stdio framing.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"start"},
	Short:   "Start the language server over stdio",
	Long: `Start treesitter-ls, reading LSP requests from stdin and writing
responses to stdout. The editor's client is expected to manage the
process lifecycle (spawn on workspace open, terminate on exit/shutdown).`,
	RunE: runServe,
}

var serveWorkDir string

func init() {
	ServeCmd.Flags().StringVar(&serveWorkDir, "workdir", "", "workspace root to load settings from (defaults to the current directory)")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir := serveWorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "resolve working directory")
		}
		workDir = wd
	}

	srv, err := lspserver.NewServer(workDir)
	if err != nil {
		return errors.Wrap(err, "construct server")
	}
	defer srv.Close()

	logger.Logger.Infow("starting treesitter-ls", "workdir", workDir)
	if err := srv.RunStdio(); err != nil {
		return errors.Wrap(err, "serve stdio")
	}
	return nil
}
