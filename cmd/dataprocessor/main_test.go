package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliink/dataprocessor/internal/model"
)

const fastConfig = `
log:
  level: error
backends:
  postgresql: {connect_latency: 0s}
  mongodb: {connect_latency: 0s}
  redis: {connect_latency: 0s}
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func configFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataprocessor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fastConfig), 0o644))
	return path
}

func TestModesCommand(t *testing.T) {
	out, err := execute(t, "", "modes")
	require.NoError(t, err)

	for _, mode := range model.SupportedModes() {
		assert.Contains(t, out, string(mode))
	}
}

func TestBackendsCommand(t *testing.T) {
	out, err := execute(t, "", "backends")
	require.NoError(t, err)

	assert.Contains(t, out, "postgresql://localhost:5432/dataprocessor")
	assert.Contains(t, out, "redis://localhost:6379")
}

func TestProcessCommand(t *testing.T) {
	cfg := configFile(t)

	t.Run("Prints the result as JSON", func(t *testing.T) {
		out, err := execute(t, "", "process", "--config", cfg, "--mode", "transformation",
			"--data", `{"name":" John ","email":"JOHN@X.COM"}`)
		require.NoError(t, err)

		var result model.ProcessingResult
		require.NoError(t, gojson.Unmarshal([]byte(out), &result))
		assert.True(t, result.Success)
		assert.Equal(t, model.ModeTransformation, result.Metadata.Mode)
		assert.Equal(t, map[string]any{"name": "john", "email": "john@x.com"}, result.Data["normalized"])
	})

	t.Run("Reads the record from stdin", func(t *testing.T) {
		out, err := execute(t, `{"id":3}`, "process", "--config", cfg, "--backend", "redis", "--mode", "aggregation", "--input", "-")
		require.NoError(t, err)

		var result model.ProcessingResult
		require.NoError(t, gojson.Unmarshal([]byte(out), &result))
		assert.Equal(t, model.BackendRedis, result.Metadata.Backend)
	})

	t.Run("Failed results are printed and reported", func(t *testing.T) {
		out, err := execute(t, "", "process", "--config", cfg, "--data", `{"name":"John","email":"nope"}`)
		assert.EqualError(t, err, "processing failed")
		assert.Contains(t, out, "Data validation failed")
	})

	t.Run("Rejects unknown modes", func(t *testing.T) {
		_, err := execute(t, "", "process", "--config", cfg, "--mode", "bogus", "--data", `{}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown processing mode: bogus")
	})

	t.Run("Requires input", func(t *testing.T) {
		_, err := execute(t, "", "process", "--config", cfg)
		assert.EqualError(t, err, "one of --data or --input is required")
	})

	t.Run("Rejects malformed JSON", func(t *testing.T) {
		_, err := execute(t, "", "process", "--config", cfg, "--data", `{"name":`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON input")
	})
}
