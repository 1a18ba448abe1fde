package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/google"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvCredsFile, config.EnvMailCredsFile, config.EnvMailTokenFile,
		config.EnvStorageCredsFile, config.EnvStorageTokenFile,
		config.EnvCourseCredsFile, config.EnvCourseTokenFile,
		config.EnvMaxContentBytes, config.EnvAPITimeout, config.EnvGoogleAPITimeout,
		config.EnvHandshakeTimeout, config.EnvConfigFile,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	configFile := filepath.Join(dir, "servar.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
mail_token_path: /from/file/mail.json
max_content_bytes: 1024
api_timeout: 10s
`), 0600))

	cmd := &cobra.Command{Use: "test"}
	opts := &serveOptions{}
	opts.register(cmd)
	require.NoError(t, cmd.Flags().Set("config", configFile))
	require.NoError(t, cmd.Flags().Set("env-file", ""))
	require.NoError(t, cmd.Flags().Set("api-timeout", "5s"))
	require.NoError(t, cmd.Flags().Set("storage-token-file", "/from/flag/storage.json"))

	cfg, err := opts.loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "/from/file/mail.json", cfg.MailTokenPath)
	assert.Equal(t, "/from/flag/storage.json", cfg.StorageTokenPath)
	assert.Equal(t, int64(1024), cfg.MaxContentBytes)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearConfigEnv(t)

	cmd := &cobra.Command{Use: "test"}
	opts := &serveOptions{}
	opts.register(cmd)
	require.NoError(t, cmd.Flags().Set("max-content-bytes", "0"))

	_, err := opts.loadConfig(cmd)
	assert.ErrorContains(t, err, "max content bytes")
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	cmd := newServeCmd()
	err := runServe(cmd, &serveOptions{transport: "sse"})
	assert.ErrorContains(t, err, "unsupported transport type: sse")
}

func TestAuthTargets(t *testing.T) {
	all, err := authTargets("all")
	require.NoError(t, err)
	assert.Equal(t, google.Providers(), all)

	one, err := authTargets("storage")
	require.NoError(t, err)
	assert.Equal(t, []google.Provider{google.ProviderStorage}, one)

	_, err = authTargets("calendar")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "servar version 1.2.3\n", out.String())
}
