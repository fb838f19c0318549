package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvs-dev/vvs/pkg/config"
)

func TestRootCommandStructure(t *testing.T) {
	root := NewRootCommand(DefaultConfig())
	require.Equal(t, "vvs", root.Use)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"login", "logout", "whoami", "chat", "version", "completion"} {
		assert.Contains(t, names, expected)
	}
}

func TestEnvOverrides(t *testing.T) {
	// Resolution failing on the env-provided backend proves the
	// environment fallback is consulted.
	t.Setenv("VVS_TOKEN_STORAGE", "s3")

	_, root := newTestRoot(t, "logout")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown token storage backend")
}

func TestUnknownTokenStorageFails(t *testing.T) {
	_, root := newTestRoot(t, "logout", "--token-storage", "s3")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown token storage backend")
}

func TestConfigFileFeedsResolution(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(configPath, &config.Config{
		ServerURL: "https://file.example.com",
		ClientID:  "file-client",
	}))

	buf := &bytes.Buffer{}
	root := NewRootCommand(Config{
		ConfigPath:   configPath,
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
		OutputWriter: buf,
	})
	root.SetArgs([]string{"logout"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "No stored credential.")
}

func TestMalformedConfigFileFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("\tnot yaml"), 0o600))

	buf := &bytes.Buffer{}
	root := NewRootCommand(Config{
		ConfigPath:   configPath,
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
		OutputWriter: buf,
	})
	root.SetArgs([]string{"logout"})
	require.Error(t, root.Execute())
}

func TestVersionCommand(t *testing.T) {
	env, root := newTestRoot(t, "version")
	require.NoError(t, root.Execute())
	assert.Contains(t, env.buf.String(), "vvs dev")
}

func TestCompletionBash(t *testing.T) {
	env, root := newTestRoot(t, "completion", "bash")
	require.NoError(t, root.Execute())
	assert.NotEmpty(t, env.buf.String())
}

func TestCompletionUnsupportedShell(t *testing.T) {
	_, root := newTestRoot(t, "completion", "unsupported")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported shell")
}
