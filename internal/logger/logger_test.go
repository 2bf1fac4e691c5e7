package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotator_RotatesBySize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop_guard.log")
	r := &Rotator{Filename: path, MaxSize: 10, MaxBackups: 2}
	defer r.Close()

	for _, line := range []string{"first-line\n", "second-line\n", "third-line\n"} {
		_, err := r.Write([]byte(line))
		require.NoError(t, err)
	}

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "third-line\n", string(current))

	backup1, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "second-line\n", string(backup1))

	backup2, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "first-line\n", string(backup2))
}

func TestRotator_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop_guard.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	r := &Rotator{Filename: path, MaxSize: 1024, MaxBackups: 1}
	_, err := r.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(b))
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop_guard.log")
	l := New(Config{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1})

	l.Debug().Msg("hidden")
	l.Info().Str("symbol", "AAPL").Msg("evaluated")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `"symbol":"AAPL"`)
	assert.Contains(t, out, `"message":"evaluated"`)
	assert.False(t, strings.Contains(out, "hidden"))
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestLevelForVerbosity(t *testing.T) {
	assert.Equal(t, "warn", LevelForVerbosity(0))
	assert.Equal(t, "info", LevelForVerbosity(1))
	assert.Equal(t, "debug", LevelForVerbosity(2))
	assert.Equal(t, "trace", LevelForVerbosity(5))
}
