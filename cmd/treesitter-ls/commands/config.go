package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/treesitter-ls/errors"
	"github.com/teranos/treesitter-ls/settings"
)

// ConfigCmd groups settings-introspection subcommands, matching the
// teacher's pattern of a parent command with no RunE of its own
// (teranos-QNTX's DbCmd/AmCmd) that only exists to host subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect treesitter-ls settings",
	Long:  `Show the settings layers (defaults < user < project) this server would load for a workspace, and where it would look for each file.`,
}

var configShowWorkDir string

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged settings snapshot",
	RunE:  runConfigShow,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the settings file paths this server searches",
	RunE:  runConfigPaths,
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configPathsCmd)

	configShowCmd.Flags().StringVar(&configShowWorkDir, "workdir", "", "workspace root to resolve settings for (defaults to the current directory)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	workDir := configShowWorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "resolve working directory")
		}
		workDir = wd
	}

	mgr := settings.NewManager()
	snapshot, err := mgr.Load(workDir, nil)
	if err != nil {
		return errors.Wrap(err, "load settings")
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal settings")
	}
	fmt.Println(string(out))
	return nil
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	workDir := configShowWorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "resolve working directory")
		}
		workDir = wd
	}

	fmt.Printf("user:    %s\n", settings.UserConfigPath())
	if proj := settings.FindProjectConfig(workDir); proj != "" {
		fmt.Printf("project: %s\n", proj)
	} else {
		fmt.Printf("project: (none found under %s)\n", workDir)
	}
	return nil
}
