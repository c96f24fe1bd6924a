package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/amtt/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show amtt configuration attributes and their sources",
	Long: `Show amtt configuration attributes and their sources.

Values are resolved the same way every other command resolves them, so
global flags given here are reflected in the output.

Config file location: $HOME/.config/amtt/amtt.yml (or AMTT_CONFIG_PATH)

Example:
  amtt configuration show
  amtt configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(cmd.OutOrStdout(), cfg, output); err != nil {
			fail(cmd, fmt.Errorf("failed to show configuration: %w", err))
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(w io.Writer, c *config.Config, output string) error {
	switch output {
	case "json":
		jsonOutput, err := c.FormatJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, jsonOutput)
		return err
	case "text":
		_, err := fmt.Fprint(w, c.FormatText())
		return err
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
