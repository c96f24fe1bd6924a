package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/doodlesbykumbi/amtt/pkg/audit"
	"github.com/doodlesbykumbi/amtt/pkg/config"
	"github.com/doodlesbykumbi/amtt/pkg/logger"
)

// flagAttrAnnotation ties a flag to the configuration attribute it sets.
const flagAttrAnnotation = "amtt/config-attribute"

// cfg is the effective configuration, resolved before any command runs.
var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "amtt",
	Short: "Sign and verify ES256 developer tokens",
	Long: `amtt mints ES256 developer tokens from a PKCS#8 private key and checks
tokens against the matching public key.

Settings come from defaults, $AMTT_CONFIG_PATH/amtt.yml, a .env file,
AMTT_* environment variables and flags, in increasing precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, _ := cmd.Flags().GetString("config")
		loaded, err := loadConfig(cmd.Flags(), configDir)
		if err != nil {
			return err
		}
		cfg = loaded
		return setup(cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cleanup()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Directory holding amtt.yml (default $AMTT_CONFIG_PATH or $HOME/.config/amtt)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")
	flags.Bool("audit", false, "Write an RFC5424 audit trail to stderr")
	bindFlag(flags, "log-level", config.AttrLogLevel)
	bindFlag(flags, "log-format", config.AttrLogFormat)
	bindFlag(flags, "audit", config.AttrAudit)
}

// bindFlag marks a flag as a source for a configuration attribute.
func bindFlag(flags *pflag.FlagSet, name, attr string) {
	_ = flags.SetAnnotation(name, flagAttrAnnotation, []string{attr})
}

// loadConfig resolves the configuration and then applies every flag the user
// set explicitly. Flags left at their defaults do not override other sources.
func loadConfig(flags *pflag.FlagSet, configDir string) (*config.Config, error) {
	paths := config.DefaultPaths()
	if configDir != "" {
		paths.Dir = configDir
	}

	c, err := config.LoadFrom(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var setErr error
	flags.Visit(func(f *pflag.Flag) {
		attrs, ok := f.Annotations[flagAttrAnnotation]
		if !ok || setErr != nil {
			return
		}
		for _, attr := range attrs {
			if err := c.Set(attr, f.Value.String(), config.SourceFlag); err != nil {
				setErr = fmt.Errorf("--%s: %w", f.Name, err)
				return
			}
		}
	})
	if setErr != nil {
		return nil, setErr
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setup(c *config.Config) error {
	logger.Init(logger.Config{Format: c.LogFormat, Level: c.LogLevel})

	audit.SetEnabled(c.Audit)
	if c.AuditFile != "" {
		store, err := audit.NewStore(c.AuditFile)
		if err != nil {
			return fmt.Errorf("failed to open audit file: %w", err)
		}
		audit.SetStore(store)
	}
	return nil
}

func cleanup() {
	if audit.DefaultStore != nil {
		_ = audit.DefaultStore.Close()
		audit.SetStore(nil)
	}
	_ = logger.Sync()
}

// exit flushes logs and the audit file before terminating with code.
func exit(code int) {
	cleanup()
	os.Exit(code)
}

// fail reports err the way cobra reports a RunE error and exits 1.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exit(1)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exit(1)
	}
}

func main() {
	Execute()
}
