package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "board", "roster", "export", "migrate"} {
		assert.True(t, names[want], want)
	}
}

func TestParseAt(t *testing.T) {
	now := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)

	got, err := parseAt("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseAt("2024-05-01T02:00:00+07:00", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 4, 30, 19, 0, 0, 0, time.UTC)))

	_, err = parseAt("tomorrow", now)
	assert.Error(t, err)
}

func TestRosterCommand_MemoryStore(t *testing.T) {
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"roster", "--date", "2024-04-30"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"day_id": "2024-04-30"`)
	assert.Contains(t, out.String(), `"guards": []`)
}
