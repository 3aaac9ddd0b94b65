// Command treesitter-ls is the entry point for the language server: a
// cobra root command wrapping the serve/version/config subcommands.
//
// Grounded on teranos-QNTX's cmd/qntx/main.go (PersistentPreRunE logger
// init, root command with subcommands added in init), trimmed to this
// server's three commands instead of QNTX's eight and with no plugin
// registry (this server has no plugin system).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/treesitter-ls/cmd/treesitter-ls/commands"
	"github.com/teranos/treesitter-ls/logger"
)

var rootCmd = &cobra.Command{
	Use:   "treesitter-ls",
	Short: "treesitter-ls - syntax-tree-driven language server",
	Long: `treesitter-ls - a Language Server Protocol service that delivers
semantic highlighting, goto-definition, selection-range expansion, and
code actions across nested tree-sitter language injections, bridging
remaining requests into per-language downstream servers.

Examples:
  treesitter-ls serve              # Start the language server over stdio
  treesitter-ls version             # Show version information
  treesitter-ls config show         # Print the merged settings snapshot`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		return logger.Initialize(jsonLogs)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit structured JSON log records instead of console-formatted ones")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.VersionCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
