package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/amtt/pkg/config"
	"github.com/doodlesbykumbi/amtt/pkg/process"
)

// genTokenCmd represents the gen-token command
var genTokenCmd = &cobra.Command{
	Use:   "gen-token",
	Short: "Generate a developer token",
	Long: `Generate an ES256 developer token signed with a PKCS#8 private key.

The team id becomes the token issuer and the key id is placed in the token
header. Both must be exactly 10 characters. The token lives for --exp
seconds, at most 15777000 (about six months).

With --watch the command keeps running and prints a fresh token every time
the key file is rewritten, until interrupted.

Example:
  amtt gen-token -t TEAMID1234 -k ABCDE12345 -p AuthKey_ABCDE12345.p8
  amtt gen-token -t TEAMID1234 -k ABCDE12345 -p AuthKey.p8 --exp 86400 --watch`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.ValidateSigning(); err != nil {
			fail(cmd, err)
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := watchTokens(ctx, cmd.OutOrStdout(), cfg); err != nil {
				fail(cmd, fmt.Errorf("failed to watch key file: %w", err))
			}
			return
		}

		if err := genToken(cmd.OutOrStdout(), cfg); err != nil {
			fail(cmd, fmt.Errorf("failed to generate token: %w", err))
		}
	},
}

func init() {
	rootCmd.AddCommand(genTokenCmd)

	flags := genTokenCmd.Flags()
	flags.StringP("tid", "t", "", "Team id, the token issuer (10 characters)")
	flags.StringP("kid", "k", "", "Key id of the private key (10 characters)")
	flags.StringP("path", "p", "", "Path to the PKCS#8 private key file")
	flags.Uint64P("exp", "e", config.DefaultExpiration, "Token lifetime in seconds")
	flags.Bool("watch", false, "Print a new token whenever the key file changes")
	bindFlag(flags, "tid", config.AttrTeamID)
	bindFlag(flags, "kid", config.AttrKeyID)
	bindFlag(flags, "path", config.AttrKeyPath)
	bindFlag(flags, "exp", config.AttrExpiration)
}

func genToken(w io.Writer, c *config.Config) error {
	f, err := os.Open(c.KeyPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	tok, err := process.GenToken(f, c.TeamID, c.KeyID, c.Expiration)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, tok)
	return err
}

func watchTokens(ctx context.Context, w io.Writer, c *config.Config) error {
	return process.WatchToken(ctx, c.KeyPath, c.TeamID, c.KeyID, c.Expiration, func(tok string) {
		_, _ = fmt.Fprintln(w, tok)
	})
}
