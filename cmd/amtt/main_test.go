package main

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/amtt/pkg/config"
	"github.com/doodlesbykumbi/amtt/pkg/es256"
)

const (
	testTeamID = "TEAMID1234"
	testKeyID  = "ABCDE12345"
)

// writeKeyPair writes a fresh key pair into dir and returns the file paths.
func writeKeyPair(t *testing.T, dir string) (privatePath, publicPath string) {
	t.Helper()
	key, err := es256.GenerateSigningKey(testKeyID)
	require.NoError(t, err)
	private, err := key.PrivatePem()
	require.NoError(t, err)
	public, err := key.PublicPem()
	require.NoError(t, err)

	privatePath = filepath.Join(dir, "AuthKey_"+testKeyID+".p8")
	publicPath = filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(privatePath, private, 0o600))
	require.NoError(t, os.WriteFile(publicPath, public, 0o600))
	return privatePath, publicPath
}

func testConfig(privatePath, publicPath string) *config.Config {
	c := config.New()
	c.TeamID = testTeamID
	c.KeyID = testKeyID
	c.KeyPath = privatePath
	c.PublicKeyPath = publicPath
	return c
}

func TestGenTokenAndVerify(t *testing.T) {
	dir := t.TempDir()
	c := testConfig(writeKeyPair(t, dir))
	require.NoError(t, c.ValidateSigning())
	require.NoError(t, c.ValidateVerifying())

	var out bytes.Buffer
	require.NoError(t, genToken(&out, c))
	tok := strings.TrimSpace(out.String())
	assert.Equal(t, 2, strings.Count(tok, "."))

	out.Reset()
	allValid, err := verifyTokens(context.Background(), &out, c, []string{tok})
	require.NoError(t, err)
	assert.True(t, allValid)
	assert.Equal(t, "valid\n", out.String())

	c.TeamID = "OTHERTEAM1"
	out.Reset()
	allValid, err = verifyTokens(context.Background(), &out, c, []string{tok})
	require.NoError(t, err)
	assert.False(t, allValid)
	assert.Equal(t, "invalid\n", out.String())
}

func TestVerifyTokensMalformed(t *testing.T) {
	dir := t.TempDir()
	c := testConfig(writeKeyPair(t, dir))

	var out bytes.Buffer
	require.NoError(t, genToken(&out, c))
	tok := strings.TrimSpace(out.String())

	out.Reset()
	allValid, err := verifyTokens(context.Background(), &out, c, []string{tok, "invalid.token.value", tok, "a.b"})
	assert.False(t, allValid)
	assert.ErrorIs(t, err, es256.ErrMalformed)
	assert.Contains(t, err.Error(), "token 2")
	assert.Equal(t, "valid\nmalformed\nvalid\nmalformed\n", out.String())
}

func TestVerifyTokensBadKeyFile(t *testing.T) {
	dir := t.TempDir()
	privatePath, _ := writeKeyPair(t, dir)

	c := testConfig(privatePath, privatePath)
	_, err := verifyTokens(context.Background(), &bytes.Buffer{}, c, []string{"a.b.c"})
	assert.ErrorIs(t, err, es256.ErrKeyParse)

	c.PublicKeyPath = filepath.Join(dir, "missing.pem")
	_, err = verifyTokens(context.Background(), &bytes.Buffer{}, c, []string{"a.b.c"})
	assert.ErrorIs(t, err, config.ErrKeyFileNotFound)
}

func TestGenTokenValidation(t *testing.T) {
	dir := t.TempDir()
	privatePath, publicPath := writeKeyPair(t, dir)

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr error
	}{
		{name: "short team id", mutate: func(c *config.Config) { c.TeamID = "TEAM" }, wantErr: config.ErrInvalidID},
		{name: "long key id", mutate: func(c *config.Config) { c.KeyID = "ABCDE123456" }, wantErr: config.ErrInvalidID},
		{name: "missing key file", mutate: func(c *config.Config) { c.KeyPath = filepath.Join(dir, "nope.p8") }, wantErr: config.ErrKeyFileNotFound},
		{name: "expiration too large", mutate: func(c *config.Config) { c.Expiration = config.MaxExpiration + 1 }, wantErr: config.ErrExpirationTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(privatePath, publicPath)
			tt.mutate(c)
			assert.ErrorIs(t, c.ValidateSigning(), tt.wantErr)
		})
	}
}

func TestCollectTokens(t *testing.T) {
	tokens, err := collectTokens(strings.NewReader("a.b.c\n\n  d.e.f  \n"), []string{"x.y.z", "-"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x.y.z", "a.b.c", "d.e.f"}, tokens)

	_, err = collectTokens(strings.NewReader("\n"), []string{"-"})
	assert.Error(t, err)
}

func TestDecodeToken(t *testing.T) {
	dir := t.TempDir()
	c := testConfig(writeKeyPair(t, dir))

	var out bytes.Buffer
	require.NoError(t, genToken(&out, c))
	tok := strings.TrimSpace(out.String())

	out.Reset()
	require.NoError(t, decodeToken(&out, tok))

	var decoded struct {
		Header map[string]any `json:"header"`
		Claims map[string]any `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "ES256", decoded.Header["alg"])
	assert.Equal(t, testKeyID, decoded.Header["kid"])
	assert.Equal(t, testTeamID, decoded.Claims["iss"])
	assert.InDelta(t, float64(config.DefaultExpiration), decoded.Claims["exp"].(float64)-decoded.Claims["iat"].(float64), 1)

	assert.ErrorIs(t, decodeToken(&out, "not-a-token"), es256.ErrMalformed)
}

func TestGenerateKey(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, generateKey(&stdout, &stderr, testKeyID))

	block, rest := pem.Decode(stdout.Bytes())
	require.NotNil(t, block)
	assert.Equal(t, "PRIVATE KEY", block.Type)
	block, _ = pem.Decode(rest)
	require.NotNil(t, block)
	assert.Equal(t, "PUBLIC KEY", block.Type)

	key, err := es256.NewSigningKey(stdout.Bytes(), testKeyID)
	require.NoError(t, err)
	assert.Equal(t, "fingerprint: "+key.Fingerprint()+"\n", stderr.String())
}

func TestShowConfiguration(t *testing.T) {
	c := config.New()
	require.NoError(t, c.Set(config.AttrTeamID, testTeamID, config.SourceFlag))

	var out bytes.Buffer
	require.NoError(t, showConfiguration(&out, c, "text"))
	assert.Contains(t, out.String(), testTeamID)

	out.Reset()
	require.NoError(t, showConfiguration(&out, c, "json"))
	assert.True(t, json.Valid(out.Bytes()))

	assert.Error(t, showConfiguration(&out, c, "yaml"))
}

func TestLoadConfigFlags(t *testing.T) {
	for _, name := range []string{"TEAM_ID", "KEY_ID", "KEY_PATH", "PUBLIC_KEY_PATH", "EXPIRATION", "TIME_TOLERANCE", "AUDIT", "AUDIT_FILE", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(config.EnvPrefix+name, "")
	}
	t.Setenv("AMTT_KEY_ID", "ENVKEY0001")

	cmd := &cobra.Command{Use: "test"}
	flags := cmd.Flags()
	flags.StringP("tid", "t", "", "")
	flags.StringP("kid", "k", "", "")
	flags.Uint64P("exp", "e", config.DefaultExpiration, "")
	flags.String("tolerance", "0s", "")
	flags.String("log-level", "info", "")
	bindFlag(flags, "tid", config.AttrTeamID)
	bindFlag(flags, "kid", config.AttrKeyID)
	bindFlag(flags, "exp", config.AttrExpiration)
	bindFlag(flags, "tolerance", config.AttrTimeTolerance)
	bindFlag(flags, "log-level", config.AttrLogLevel)
	require.NoError(t, flags.Parse([]string{"-t", testTeamID, "--exp", "3600", "--tolerance", "90s"}))

	c, err := loadConfig(flags, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, testTeamID, c.TeamID)
	assert.Equal(t, config.SourceFlag, c.Source(config.AttrTeamID))
	assert.Equal(t, uint64(3600), c.Expiration)
	assert.Equal(t, 90*time.Second, c.TimeTolerance)

	// Flags left at their defaults do not hide other sources.
	assert.Equal(t, "ENVKEY0001", c.KeyID)
	assert.Equal(t, config.SourceEnvironment, c.Source(config.AttrKeyID))
	assert.Equal(t, config.SourceDefault, c.Source(config.AttrLogLevel))
}

func TestLoadConfigRejectsBadFlag(t *testing.T) {
	t.Setenv("AMTT_TEAM_ID", "")
	t.Setenv("AMTT_LOG_FORMAT", "")

	cmd := &cobra.Command{Use: "test"}
	flags := cmd.Flags()
	flags.StringP("tid", "t", "", "")
	bindFlag(flags, "tid", config.AttrTeamID)
	require.NoError(t, flags.Parse([]string{"-t", "SHORT"}))

	_, err := loadConfig(flags, t.TempDir())
	assert.ErrorIs(t, err, config.ErrInvalidID)
}
