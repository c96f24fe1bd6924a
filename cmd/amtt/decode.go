package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/amtt/pkg/process"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "Print the header and claims of a token without verifying it",
	Long: `Print the header and claims of a token as JSON.

The signature is not checked, so the output must not be trusted.

Example:
  amtt decode "$TOKEN"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := decodeToken(cmd.OutOrStdout(), args[0]); err != nil {
			fail(cmd, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func decodeToken(w io.Writer, tok string) error {
	decoded, err := process.Decode(tok)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
