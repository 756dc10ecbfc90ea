// pkg/logging/sessions.go - run records and log retention for external monitoring tools
//
// Every run gets a session.json next to inventory.log describing what was run and,
// once the run ends, what it found. Old run directories are pruned by PruneLogDirs.

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// logDirLayout is the name format of the per-run log directories.
const logDirLayout = "2006-01-02-150405"

// RetentionConfig defines log retention policies
type RetentionConfig struct {
	// RetentionDays removes every run directory older than this many days.
	RetentionDays int `yaml:"retention_days"`
	// KeepAllHours keeps every run this recent; older ones are thinned to the
	// first run of each day.
	KeepAllHours int `yaml:"keep_all_hours"`
}

// Enabled reports whether any pruning is configured.
func (rc RetentionConfig) Enabled() bool {
	return rc.RetentionDays > 0
}

// Session describes one inventory run.
type Session struct {
	SessionID   string                 `json:"session_id"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     *time.Time             `json:"end_time,omitempty"`
	Mode        string                 `json:"mode"`   // live, snapshot, capture
	Status      string                 `json:"status"` // running, completed, failed
	Summary     *RunSummary            `json:"summary,omitempty"`
	Environment map[string]interface{} `json:"environment"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// RunSummary holds the headline numbers of a finished run.
type RunSummary struct {
	Products   int           `json:"products"`
	Listed     int           `json:"listed"`
	Components int           `json:"components"`
	Orphaned   int           `json:"orphaned"`
	Shared     int           `json:"shared"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// StartSession writes the initial session.json for this run.
func StartSession(mode string, metadata map[string]interface{}) error {
	if instance == nil {
		return fmt.Errorf("logging is not initialized")
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()

	instance.session = &Session{
		SessionID:   instance.config.SessionID,
		StartTime:   time.Now(),
		Mode:        mode,
		Status:      "running",
		Environment: instance.environment(),
		Metadata:    metadata,
	}
	return instance.writeSession()
}

// EndSession records the outcome of this run in session.json.
func EndSession(status string, summary RunSummary) error {
	if instance == nil {
		return fmt.Errorf("logging is not initialized")
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()

	if instance.session == nil {
		return fmt.Errorf("no active session to end")
	}
	now := time.Now()
	instance.session.EndTime = &now
	instance.session.Status = status
	if summary.Duration == 0 {
		summary.Duration = now.Sub(instance.session.StartTime)
	}
	instance.session.Summary = &summary

	err := instance.writeSession()
	instance.session = nil
	return err
}

func (l *Logger) writeSession() error {
	data, err := json.MarshalIndent(l.session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	path := filepath.Join(l.logDir, "session.json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (l *Logger) environment() map[string]interface{} {
	env := map[string]interface{}{
		"hostname":   l.hostname,
		"process_id": os.Getpid(),
	}
	if user, ok := os.LookupEnv("USERNAME"); ok {
		env["user"] = user
	}
	if domain, ok := os.LookupEnv("USERDOMAIN"); ok {
		env["domain"] = domain
	}
	return env
}

// ListLogDirs returns the run directory names under baseDir, oldest first.
func ListLogDirs(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.ParseInLocation(logDirLayout, entry.Name(), time.Local); err == nil {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// PruneLogDirs removes run directories under baseDir according to rc and returns the
// ones it removed. Directories whose name is not a run timestamp are left alone.
func PruneLogDirs(baseDir string, rc RetentionConfig, now time.Time) ([]string, error) {
	if !rc.Enabled() {
		return nil, nil
	}
	dirs, err := ListLogDirs(baseDir)
	if err != nil {
		return nil, err
	}

	// dirs is sorted, so the first entry seen for a day is that day's keeper.
	keepers := make(map[string]bool)
	seenDay := make(map[string]bool)
	for _, name := range dirs {
		day := name[:10]
		if !seenDay[day] {
			seenDay[day] = true
			keepers[name] = true
		}
	}

	var removed []string
	for _, name := range dirs {
		ts, _ := time.ParseInLocation(logDirLayout, name, time.Local)
		age := now.Sub(ts)

		remove := age > time.Duration(rc.RetentionDays)*24*time.Hour
		if age > time.Duration(rc.KeepAllHours)*time.Hour && !keepers[name] {
			remove = true
		}
		if !remove {
			continue
		}

		path := filepath.Join(baseDir, name)
		if err := os.RemoveAll(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove old log directory %s: %v\n", path, err)
			continue
		}
		removed = append(removed, name)
	}
	return removed, nil
}
