package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/santiagomed/devspark/internal/config"
	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write or merge dev_config.json for a project",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Write the default devspark settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		path, err := config.WriteDefault(afero.NewOsFs(), dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings file: %s\n", nameStyle.Render(path))
		return nil
	},
}

func init() {
	configCmd.Flags().String("path", ".", "Project directory")
	configCmd.Flags().Bool("debug", false, "Enable debug mode")
	configCmd.Flags().String("env", "development", "Environment name")
	configCmd.Flags().Bool("overwrite", false, "Replace an existing dev_config.json instead of merging")
	configCmd.AddCommand(configSettingsCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	debug, _ := cmd.Flags().GetBool("debug")
	env, _ := cmd.Flags().GetString("env")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	values := map[string]any{
		"environment": env,
		"debug_mode":  debug,
		"timestamp":   time.Now().Format(time.RFC3339),
	}
	merged, err := devenv.CreateDevConfig(fs.NewOsFileSystem(), path, values, !overwrite)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(merged, "", "    ")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", nameStyle.Render(devenv.DevConfigFile))
	fmt.Fprintln(out, string(b))
	return nil
}
