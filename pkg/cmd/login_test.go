package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvs-dev/vvs/pkg/auth"
)

type testEnv struct {
	buf       *bytes.Buffer
	tokenPath string
}

func newTestRoot(t *testing.T, args ...string) (*testEnv, *cobra.Command) {
	t.Helper()
	env := &testEnv{
		buf:       &bytes.Buffer{},
		tokenPath: filepath.Join(t.TempDir(), "token.json"),
	}
	root := NewRootCommand(Config{
		ConfigPath:   filepath.Join(t.TempDir(), "missing-config.yaml"),
		TokenPath:    env.tokenPath,
		OutputWriter: env.buf,
	})
	root.SetArgs(args)
	return env, root
}

// deviceFlowServer serves the device authorization and token endpoints under
// the paths the CLI derives from the server URL.
func deviceFlowServer(t *testing.T, tokenHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "vvs-cli", r.Form.Get("client_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "D1",
			"user_code":        "ABCD-1234",
			"verification_uri": "https://example.com/device",
			"expires_in":       600,
			"interval":         1,
		})
	})
	mux.HandleFunc("/api/auth/device/token", tokenHandler)
	return httptest.NewServer(mux)
}

func TestLoginDeviceFlow(t *testing.T) {
	var calls int32
	server := deviceFlowServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "tok_abc",
			"refresh_token": "ref_def",
			"token_type":    "Bearer",
			"scope":         "openid profile email",
			"expires_in":    3600,
		})
	})
	defer server.Close()

	env, root := newTestRoot(t, "login", "--server-url", server.URL, "--no-browser")
	require.NoError(t, root.Execute())

	out := env.buf.String()
	assert.Contains(t, out, "Visit https://example.com/device and enter code: ABCD-1234")
	assert.Contains(t, out, "Waiting for authorization")
	assert.Contains(t, out, "Authenticated. Token expires at")

	store := &auth.FileStore{Path: env.tokenPath}
	rec := store.Load()
	require.NotNil(t, rec)
	assert.Equal(t, "tok_abc", rec.AccessToken)
	assert.Equal(t, "ref_def", rec.RefreshToken)
	require.NotNil(t, rec.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *rec.ExpiresAt, time.Minute)
}

func TestLoginDeclinedReauth(t *testing.T) {
	env, root := newTestRoot(t, "login", "--server-url", "http://127.0.0.1:1")
	future := time.Now().Add(time.Hour)
	store := &auth.FileStore{Path: env.tokenPath}
	require.NoError(t, store.Save(&auth.Record{AccessToken: "existing", ExpiresAt: &future, CreatedAt: time.Now()}))

	root.SetIn(strings.NewReader("n\n"))
	require.NoError(t, root.Execute(), "declining re-authentication is a successful no-op")

	assert.Contains(t, env.buf.String(), "Login cancelled.")
	rec := store.Load()
	require.NotNil(t, rec)
	assert.Equal(t, "existing", rec.AccessToken, "decline must not touch the stored credential")
}

func TestLoginNonInteractiveSkipsPrompt(t *testing.T) {
	env, root := newTestRoot(t, "login", "--server-url", "http://127.0.0.1:1", "--non-interactive")
	future := time.Now().Add(time.Hour)
	store := &auth.FileStore{Path: env.tokenPath}
	require.NoError(t, store.Save(&auth.Record{AccessToken: "existing", ExpiresAt: &future, CreatedAt: time.Now()}))

	require.NoError(t, root.Execute())
	assert.Contains(t, env.buf.String(), "Login cancelled.")
}

func TestLoginAccessDenied(t *testing.T) {
	server := deviceFlowServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "access_denied",
			"error_description": "user denied the request",
		})
	})
	defer server.Close()

	env, root := newTestRoot(t, "login", "--server-url", server.URL, "--no-browser")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")

	store := &auth.FileStore{Path: env.tokenPath}
	assert.Nil(t, store.Load(), "no partial record is persisted on a failed login")
}

func TestLoginProviderRejectsCodeRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
	}))
	defer server.Close()

	_, root := newTestRoot(t, "login", "--server-url", server.URL, "--no-browser")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to request device authorization")
}
