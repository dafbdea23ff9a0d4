package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	base := Config{ServerURL: "http://127.0.0.1:5001", RequestTimeout: 1500 * time.Millisecond}

	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "http://10.0.0.1:9090", "-t", "30"},
			expected: &Config{ServerURL: "http://10.0.0.1:9090", RequestTimeout: 30 * time.Second}},
		{name: "Test2 timeout kept when not given", args: []string{"cmd", "-a", "http://h:1"},
			expected: &Config{ServerURL: "http://h:1", RequestTimeout: 1500 * time.Millisecond}},
		{name: "Test3 foreign flags ignored", args: []string{"cmd", "-x", "1", "-c", "f.json"},
			expected: &Config{ServerURL: "http://127.0.0.1:5001", RequestTimeout: 1500 * time.Millisecond}},
		{name: "Test4 incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := base
			err := parseFlags(&config)

			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(&config, tt.expected))
		})
	}
}
