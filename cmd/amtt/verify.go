package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/amtt/pkg/config"
	"github.com/doodlesbykumbi/amtt/pkg/es256"
	"github.com/doodlesbykumbi/amtt/pkg/keyfile"
	"github.com/doodlesbykumbi/amtt/pkg/process"
)

const exitInvalid = 2

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <token>...",
	Short: "Verify developer tokens against a public key",
	Long: `Verify developer tokens against a PKIX public key.

Prints "valid", "invalid" or "malformed" for each token, one line per
token in input order. A token is invalid when its signature, key id, issuer
or expiration does not check out. Input that is not a token at all is
printed as "malformed" and also reported as an error. Pass "-" to read tokens
from stdin, one per line.

Exit status is 0 when every token is valid, 2 when any is invalid and 1 on
errors.

Example:
  amtt verify -t TEAMID1234 -k ABCDE12345 -p public.pem "$TOKEN"
  amtt verify -t TEAMID1234 -p public.pem --tolerance 60s - < tokens.txt`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.ValidateVerifying(); err != nil {
			fail(cmd, err)
		}

		tokens, err := collectTokens(cmd.InOrStdin(), args)
		if err != nil {
			fail(cmd, err)
		}

		allValid, err := verifyTokens(cmd.Context(), cmd.OutOrStdout(), cfg, tokens)
		if err != nil {
			fail(cmd, err)
		}
		if !allValid {
			exit(exitInvalid)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	flags := verifyCmd.Flags()
	flags.StringP("tid", "t", "", "Expected issuer (10 characters)")
	flags.StringP("kid", "k", "", "Expected key id; when empty the header kid is not checked")
	flags.StringP("path", "p", "", "Path to the PKIX public key file")
	flags.String("tolerance", "0s", "Clock skew allowed past expiration (duration or seconds)")
	bindFlag(flags, "tid", config.AttrTeamID)
	bindFlag(flags, "kid", config.AttrKeyID)
	bindFlag(flags, "path", config.AttrPublicKeyPath)
	bindFlag(flags, "tolerance", config.AttrTimeTolerance)
}

// collectTokens expands "-" into the non-empty lines of stdin.
func collectTokens(stdin io.Reader, args []string) ([]string, error) {
	var tokens []string
	for _, arg := range args {
		if arg != "-" {
			tokens = append(tokens, arg)
			continue
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read tokens from stdin: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				tokens = append(tokens, line)
			}
		}
	}
	if len(tokens) == 0 {
		return nil, errors.New("no tokens to verify")
	}
	return tokens, nil
}

// verifyTokens prints one line per token, in input order, and reports
// whether all were valid. The first malformed token is returned as an error
// after every line has been printed.
func verifyTokens(ctx context.Context, w io.Writer, c *config.Config, tokens []string) (bool, error) {
	pemBytes, err := keyfile.Read(c.PublicKeyPath)
	if err != nil {
		return false, err
	}
	key, err := es256.NewVerifyingKey(pemBytes, c.KeyID)
	if err != nil {
		return false, err
	}

	results, err := process.VerifyAll(ctx, key, tokens, c.TeamID, c.TimeTolerance)
	if err != nil {
		return false, err
	}

	allValid := true
	var firstErr error
	for i, r := range results {
		switch {
		case r.Err != nil:
			allValid = false
			if firstErr == nil {
				firstErr = fmt.Errorf("token %d: %w", i+1, r.Err)
			}
			_, err = fmt.Fprintln(w, "malformed")
		case r.Valid:
			_, err = fmt.Fprintln(w, "valid")
		default:
			allValid = false
			_, err = fmt.Fprintln(w, "invalid")
		}
		if err != nil {
			return false, err
		}
	}
	return allValid, firstErr
}
