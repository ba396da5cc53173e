package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazyreport/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	dir := t.TempDir()

	log, closer, err := New(config.LogConfig{Path: "logs/app.log", Level: "debug"}, dir)
	require.NoError(t, err)

	log.WithField("component", "fetcher").Debug("report loaded")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", "app.log"))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line))
	assert.Equal(t, "report loaded", line["msg"])
	assert.Equal(t, "fetcher", line["component"])
	assert.Equal(t, "debug", line["level"])
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Path: "app.log", Level: "chatty"}, t.TempDir())
	assert.Error(t, err)
}
