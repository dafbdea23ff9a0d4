package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"server_url":      "http://www.example:9000",
		"request_timeout": "20s",
	})
	partial := writeTempJSON(t, dir, "partial.json", map[string]any{
		"server_url": "http://partial.example",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", full}

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "http://www.example:9000", cfg.ServerURL)
		assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
	})

	t.Run("missing keys keep previous values", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{ServerURL: "http://defaults", RequestTimeout: 7 * time.Second}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "http://partial.example", cfg.ServerURL)
		assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{ServerURL: "http://defaults:1234", RequestTimeout: 42 * time.Second}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "http://defaults:1234", cfg.ServerURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("missing file → error", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}
		require.Error(t, parseJson(&Config{}))
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Error(t, parseJson(&Config{}))
	})
}
