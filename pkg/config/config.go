package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/amtt/pkg/keyfile"
)

const (
	ConfigFileName = "amtt.yml"
	DotEnvFileName = ".env"
	EnvPrefix      = "AMTT_"

	// DefaultExpiration is 30 days.
	DefaultExpiration uint64 = 2592000
	// MaxExpiration is roughly six months, the longest lifetime the
	// receiving service accepts.
	MaxExpiration uint64 = 15777000

	// IDLength is the length of both team and key identifiers.
	IDLength = 10
)

// Attribute sources, lowest precedence first.
const (
	SourceDefault     = "default"
	SourceFile        = "file"
	SourceDotEnv      = "dotenv"
	SourceEnvironment = "environment"
	SourceFlag        = "flag"
)

// Attribute names. Environment variables are EnvPrefix plus the upper-cased name.
const (
	AttrTeamID        = "team_id"
	AttrKeyID         = "key_id"
	AttrKeyPath       = "key_path"
	AttrPublicKeyPath = "public_key_path"
	AttrExpiration    = "expiration"
	AttrTimeTolerance = "time_tolerance"
	AttrAudit         = "audit"
	AttrAuditFile     = "audit_file"
	AttrLogLevel      = "log_level"
	AttrLogFormat     = "log_format"
)

var (
	ErrInvalidID          = errors.New("invalid identifier")
	ErrExpirationTooLarge = errors.New("expiration too large")
	ErrUnknownAttribute   = errors.New("unknown configuration attribute")
)

// Config holds the effective amtt settings.
type Config struct {
	TeamID        string
	KeyID         string
	KeyPath       string
	PublicKeyPath string
	Expiration    uint64
	TimeTolerance time.Duration
	Audit         bool
	AuditFile     string
	LogLevel      string
	LogFormat     string

	// sources tracks where each value came from
	sources map[string]string

	configFilePath string
}

// fileConfig is the YAML layout. Pointers distinguish unset from zero.
type fileConfig struct {
	TeamID        *string `yaml:"team_id"`
	KeyID         *string `yaml:"key_id"`
	KeyPath       *string `yaml:"key_path"`
	PublicKeyPath *string `yaml:"public_key_path"`
	Expiration    *uint64 `yaml:"expiration"`
	TimeTolerance *string `yaml:"time_tolerance"`
	Audit         *bool   `yaml:"audit"`
	AuditFile     *string `yaml:"audit_file"`
	LogLevel      *string `yaml:"log_level"`
	LogFormat     *string `yaml:"log_format"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Paths locates the configuration file directory and the dotenv file.
type Paths struct {
	Dir    string
	DotEnv string
}

// DefaultPaths returns $AMTT_CONFIG_PATH (or $HOME/.config/amtt) and .env in
// the working directory.
func DefaultPaths() Paths {
	dir := os.Getenv(EnvPrefix + "CONFIG_PATH")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config", "amtt")
	}
	return Paths{Dir: dir, DotEnv: DotEnvFileName}
}

func attributeNames() []string {
	return []string{
		AttrTeamID, AttrKeyID, AttrKeyPath, AttrPublicKeyPath,
		AttrExpiration, AttrTimeTolerance, AttrAudit, AttrAuditFile,
		AttrLogLevel, AttrLogFormat,
	}
}

// New returns a config holding only defaults.
func New() *Config {
	c := &Config{
		Expiration: DefaultExpiration,
		LogLevel:   "info",
		LogFormat:  "console",
		sources:    make(map[string]string),
	}
	for _, name := range attributeNames() {
		c.sources[name] = SourceDefault
	}
	return c
}

// LoadFrom layers the YAML file, the dotenv file and the process environment
// over the defaults. Missing files are skipped. Flags are applied afterwards
// by the caller with Set.
func LoadFrom(p Paths) (*Config, error) {
	c := New()

	if p.Dir != "" {
		c.configFilePath = filepath.Join(p.Dir, ConfigFileName)
		if data, err := os.ReadFile(c.configFilePath); err == nil {
			var file fileConfig
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", c.configFilePath, err)
			}
			if err := c.applyFileConfig(&file); err != nil {
				return nil, fmt.Errorf("config file %s: %w", c.configFilePath, err)
			}
		}
	}

	if p.DotEnv != "" {
		// godotenv.Read leaves the process environment untouched, so real
		// environment variables still win below.
		if env, err := godotenv.Read(p.DotEnv); err == nil {
			if err := c.applyEnvConfig(func(key string) (string, bool) {
				v, ok := env[key]
				return v, ok
			}, SourceDotEnv); err != nil {
				return nil, fmt.Errorf("%s: %w", p.DotEnv, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse %s: %w", p.DotEnv, err)
		}
	}

	if err := c.applyEnvConfig(os.LookupEnv, SourceEnvironment); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyFileConfig(file *fileConfig) error {
	strs := map[string]*string{
		AttrTeamID:        file.TeamID,
		AttrKeyID:         file.KeyID,
		AttrKeyPath:       file.KeyPath,
		AttrPublicKeyPath: file.PublicKeyPath,
		AttrTimeTolerance: file.TimeTolerance,
		AttrAuditFile:     file.AuditFile,
		AttrLogLevel:      file.LogLevel,
		AttrLogFormat:     file.LogFormat,
	}
	for name, v := range strs {
		if v == nil {
			continue
		}
		if err := c.Set(name, *v, SourceFile); err != nil {
			return err
		}
	}
	if file.Expiration != nil {
		c.Expiration = *file.Expiration
		c.sources[AttrExpiration] = SourceFile
	}
	if file.Audit != nil {
		c.Audit = *file.Audit
		c.sources[AttrAudit] = SourceFile
	}
	return nil
}

func (c *Config) applyEnvConfig(lookup func(string) (string, bool), source string) error {
	for _, name := range attributeNames() {
		val, ok := lookup(EnvName(name))
		if !ok || val == "" {
			continue
		}
		if err := c.Set(name, val, source); err != nil {
			return fmt.Errorf("%s: %w", EnvName(name), err)
		}
	}
	return nil
}

// EnvName returns the environment variable for an attribute.
func EnvName(attr string) string {
	return EnvPrefix + strings.ToUpper(attr)
}

// Set parses value into the named attribute and records its source.
func (c *Config) Set(name, value, source string) error {
	switch name {
	case AttrTeamID:
		c.TeamID = value
	case AttrKeyID:
		c.KeyID = value
	case AttrKeyPath:
		c.KeyPath = value
	case AttrPublicKeyPath:
		c.PublicKeyPath = value
	case AttrExpiration:
		exp, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		c.Expiration = exp
	case AttrTimeTolerance:
		d, err := ParseTolerance(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		c.TimeTolerance = d
	case AttrAudit:
		c.Audit = parseBool(value)
	case AttrAuditFile:
		c.AuditFile = value
	case AttrLogLevel:
		c.LogLevel = strings.ToLower(value)
	case AttrLogFormat:
		c.LogFormat = strings.ToLower(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
	}

	if c.sources == nil {
		c.sources = make(map[string]string)
	}
	c.sources[name] = source
	return nil
}

// ParseTolerance accepts a duration ("90s", "1h") or a whole number of seconds.
func ParseTolerance(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return SourceDefault
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return SourceDefault
}

// ValidateID checks that a team or key identifier is exactly IDLength
// characters. kind names the identifier in the error.
func ValidateID(kind, id string) error {
	if n := len([]rune(id)); n != IDLength {
		return fmt.Errorf("%w: %s must be exactly %d characters, got %d", ErrInvalidID, kind, IDLength, n)
	}
	return nil
}

// ValidateExpiration rejects lifetimes above MaxExpiration.
func ValidateExpiration(exp uint64) error {
	if exp > MaxExpiration {
		return fmt.Errorf("%w: %d exceeds the maximum of %d seconds", ErrExpirationTooLarge, exp, MaxExpiration)
	}
	return nil
}

// ValidateKeyFile checks that path names an existing file.
func ValidateKeyFile(path string) error {
	if !keyfile.Exists(path) {
		return fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
	}
	return nil
}

// Validate checks the settings that make sense without knowing the command.
// Identifiers are checked only when set.
func (c *Config) Validate() error {
	if c.TeamID != "" {
		if err := ValidateID("team id", c.TeamID); err != nil {
			return err
		}
	}
	if c.KeyID != "" {
		if err := ValidateID("key id", c.KeyID); err != nil {
			return err
		}
	}
	if err := ValidateExpiration(c.Expiration); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}
	return nil
}

// ValidateSigning checks everything gen-token needs.
func (c *Config) ValidateSigning() error {
	if err := ValidateID("team id", c.TeamID); err != nil {
		return err
	}
	if err := ValidateID("key id", c.KeyID); err != nil {
		return err
	}
	if err := ValidateKeyFile(c.KeyPath); err != nil {
		return err
	}
	return ValidateExpiration(c.Expiration)
}

// ValidateVerifying checks everything verify needs. The key id is optional.
func (c *Config) ValidateVerifying() error {
	if err := ValidateID("team id", c.TeamID); err != nil {
		return err
	}
	if c.KeyID != "" {
		if err := ValidateID("key id", c.KeyID); err != nil {
			return err
		}
	}
	return ValidateKeyFile(c.PublicKeyPath)
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: AttrTeamID, Value: c.TeamID, Source: c.Source(AttrTeamID)},
		{Name: AttrKeyID, Value: c.KeyID, Source: c.Source(AttrKeyID)},
		{Name: AttrKeyPath, Value: c.KeyPath, Source: c.Source(AttrKeyPath)},
		{Name: AttrPublicKeyPath, Value: c.PublicKeyPath, Source: c.Source(AttrPublicKeyPath)},
		{Name: AttrExpiration, Value: strconv.FormatUint(c.Expiration, 10), Source: c.Source(AttrExpiration)},
		{Name: AttrTimeTolerance, Value: c.TimeTolerance.String(), Source: c.Source(AttrTimeTolerance)},
		{Name: AttrAudit, Value: strconv.FormatBool(c.Audit), Source: c.Source(AttrAudit)},
		{Name: AttrAuditFile, Value: c.AuditFile, Source: c.Source(AttrAuditFile)},
		{Name: AttrLogLevel, Value: c.LogLevel, Source: c.Source(AttrLogLevel)},
		{Name: AttrLogFormat, Value: c.LogFormat, Source: c.Source(AttrLogFormat)},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
