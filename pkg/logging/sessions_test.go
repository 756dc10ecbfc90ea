package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readSession(dir string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(dir, "session.json"))
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return &s, nil
}

// useLogger installs a fresh package logger for the duration of a test.
func useLogger(t *testing.T, cfg LoggerConfig) *Logger {
	t.Helper()
	l, err := newLoggerWithConfig(cfg)
	require.NoError(t, err)
	prev := instance
	instance = l
	t.Cleanup(func() {
		CloseLogger()
		instance = prev
	})
	return l
}

func TestSessionLifecycle(t *testing.T) {
	l := useLogger(t, LoggerConfig{BaseDir: t.TempDir(), Component: "msiinv", SessionID: "s-1", Level: LevelInfo})

	require.NoError(t, StartSession("snapshot", map[string]interface{}{"level": "normal"}))
	s, err := readSession(l.logDir)
	require.NoError(t, err)
	require.Equal(t, "s-1", s.SessionID)
	require.Equal(t, "running", s.Status)
	require.Equal(t, "snapshot", s.Mode)
	require.Nil(t, s.EndTime)

	require.NoError(t, EndSession("completed", RunSummary{Products: 3, Components: 6, Orphaned: 2, Shared: 2}))
	s, err = readSession(l.logDir)
	require.NoError(t, err)
	require.Equal(t, "completed", s.Status)
	require.NotNil(t, s.EndTime)
	require.Equal(t, 3, s.Summary.Products)
	require.Equal(t, 2, s.Summary.Orphaned)
	require.Equal(t, "normal", s.Metadata["level"])

	require.Error(t, EndSession("completed", RunSummary{}), "a session ends once")
}

func TestPruneLogDirs(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	names := []string{
		"2024-01-01-080000", // past retention
		"2024-03-05-070000", // first run of the day, kept
		"2024-03-05-190000", // thinned
		"2024-03-10-090000", // recent
		"2024-03-10-110000", // recent
		"not-a-run",
	}
	for _, n := range names {
		require.NoError(t, os.Mkdir(filepath.Join(base, n), 0755))
	}

	removed, err := PruneLogDirs(base, RetentionConfig{RetentionDays: 30, KeepAllHours: 24}, now)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-01-01-080000", "2024-03-05-190000"}, removed)

	left, err := ListLogDirs(base)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-03-05-070000", "2024-03-10-090000", "2024-03-10-110000"}, left)
	require.DirExists(t, filepath.Join(base, "not-a-run"))
}

func TestPruneDisabled(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "2001-01-01-000000"), 0755))

	removed, err := PruneLogDirs(base, RetentionConfig{}, time.Now())
	require.NoError(t, err)
	require.Empty(t, removed)
	require.DirExists(t, filepath.Join(base, "2001-01-01-000000"))
}
