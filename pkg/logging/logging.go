// pkg/logging/logging.go - timestamped logging for msiinv
//
// Two loggers live here:
// - the package-level logger (Init, Info, Debug, Warn, Error) writes key/value
//   entries to inventory.log and events.jsonl inside a timestamped directory
// - *Logger instances (New) print colored console messages

package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/windowsadmins/msiinv/pkg/config"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel. Unknown values map to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LogEntry is one structured log line.
type LogEntry struct {
	Time       int64                  `json:"time"`
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component"`
	PID        int64                  `json:"pid"`
	Hostname   string                 `json:"hostname"`
	SessionID  string                 `json:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// LoggerConfig holds configuration for the file logger.
type LoggerConfig struct {
	BaseDir       string
	Component     string
	Retention     RetentionConfig
	SessionID     string
	Level         LogLevel
	EnableJSON    bool
	EnableConsole bool
	Console       io.Writer
}

// Logger writes log entries to files and, for instances made by New, to the console.
type Logger struct {
	mu       sync.RWMutex
	logger   *log.Logger
	logLevel LogLevel
	logFile  *os.File
	jsonFile *os.File
	config   LoggerConfig
	logDir   string
	hostname string
	session  *Session
}

var (
	instance *Logger
	once     sync.Once
)

// Init initializes the package logger from the tool configuration.
func Init(cfg *config.Configuration) error {
	logCfg := LoggerConfig{
		BaseDir:    cfg.LogDir,
		Component:  "msiinv",
		SessionID:  generateSessionID(),
		Level:      ParseLevel(cfg.LogLevel),
		EnableJSON: true,
		Retention: RetentionConfig{
			RetentionDays: cfg.LogRetentionDays,
			KeepAllHours:  cfg.LogKeepAllHours,
		},
	}
	if cfg.Debug {
		logCfg.Level = LevelDebug
	}
	return InitWithConfig(logCfg)
}

// InitWithConfig initializes the package logger with an explicit LoggerConfig.
func InitWithConfig(logCfg LoggerConfig) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLoggerWithConfig(logCfg)
	})
	return initErr
}

func generateSessionID() string {
	now := time.Now()
	return fmt.Sprintf("msiinv-%d-%s", now.Unix(), now.Format("2006-01-02-150405"))
}

func newLoggerWithConfig(cfg LoggerConfig) (*Logger, error) {
	start := time.Now()
	if cfg.Retention.Enabled() {
		if _, err := PruneLogDirs(cfg.BaseDir, cfg.Retention, start); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to perform log cleanup: %v\n", err)
		}
	}

	logDir := filepath.Join(cfg.BaseDir, start.Format(logDirLayout))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		logLevel: cfg.Level,
		config:   cfg,
		logDir:   logDir,
		hostname: hostname,
	}

	var err error
	l.logFile, err = os.OpenFile(filepath.Join(logDir, "inventory.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open main log file: %w", err)
	}
	if cfg.EnableJSON {
		l.jsonFile, err = os.OpenFile(filepath.Join(logDir, "events.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			l.logFile.Close()
			return nil, fmt.Errorf("failed to open JSON log file: %w", err)
		}
	}

	var out io.Writer = l.logFile
	if cfg.EnableConsole {
		console := cfg.Console
		if console == nil {
			console = os.Stderr
		}
		out = io.MultiWriter(console, l.logFile)
	}
	l.logger = log.New(out, "", 0)
	return l, nil
}

// CloseLogger closes the package logger's files.
func CloseLogger() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()

	if instance.logFile != nil {
		if err := instance.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close main log file: %v\n", err)
		}
		instance.logFile = nil
	}
	if instance.jsonFile != nil {
		if err := instance.jsonFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close JSON log file: %v\n", err)
		}
		instance.jsonFile = nil
	}
}

// GetCurrentLogDir returns the timestamped directory of this run.
func GetCurrentLogDir() string {
	if instance == nil {
		return ""
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.logDir
}

func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.logLevel || l.logFile == nil {
		return
	}

	properties := make(map[string]interface{}, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		properties[fmt.Sprintf("%v", keyValues[i])] = keyValues[i+1]
	}

	now := time.Now()
	entry := LogEntry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.config.Component,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		SessionID:  l.config.SessionID,
		Properties: properties,
	}

	l.logger.Println(formatLine(entry, keyValues))
	if l.jsonFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			l.jsonFile.Write(append(data, '\n'))
		}
	}
}

// formatLine renders the plain-text form: "[ts] LEVEL message k=v ...".
// Entries with many values put one pair per line.
func formatLine(entry LogEntry, keyValues []interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", time.Unix(entry.Time, 0).Format("2006-01-02 15:04:05"), entry.Level, entry.Message)
	multiline := len(keyValues)/2 > 4
	for i := 0; i+1 < len(keyValues); i += 2 {
		if multiline {
			fmt.Fprintf(&b, "\n        %v: %v", keyValues[i], keyValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v=%v", keyValues[i], keyValues[i+1])
		}
	}
	return b.String()
}

// logPackage routes to the package logger. Before Init, warnings and errors go to
// stderr and everything else is dropped.
func logPackage(level LogLevel, message string, keyValues ...interface{}) {
	if instance == nil {
		if level <= LevelWarn {
			fmt.Fprintf(os.Stderr, "%s %s %v\n", level.String(), message, keyValues)
		}
		return
	}
	instance.logMessage(level, message, keyValues...)
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	logPackage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	logPackage(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	logPackage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	logPackage(LevelError, message, keyValues...)
}

// New creates a console Logger. Verbose output goes to stdout, otherwise stderr.
func New(verbose bool) *Logger {
	if verbose {
		return newConsole(os.Stdout)
	}
	return newConsole(os.Stderr)
}

func newConsole(w io.Writer) *Logger {
	return &Logger{
		logger:   log.New(w, "", 0),
		logLevel: LevelInfo,
	}
}

func (l *Logger) colorPrintf(c *color.Color, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Print(c.Sprintf("[%s] %s", ts, fmt.Sprintf(format, v...)))
}

// Printf prints a regular message.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] %s", ts, fmt.Sprintf(format, v...))
}

// Info prints an informational message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.Printf(format, v...)
}

// Success prints a success message in green.
func (l *Logger) Success(format string, v ...interface{}) {
	l.colorPrintf(color.New(color.FgGreen), format, v...)
}

// Error prints an error message in red.
func (l *Logger) Error(format string, v ...interface{}) {
	l.colorPrintf(color.New(color.FgRed), format, v...)
}

// Warning prints a warning message in yellow.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.colorPrintf(color.New(color.FgYellow), format, v...)
}

// Debug prints a debug message in blue.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.colorPrintf(color.New(color.FgBlue), format, v...)
}

// Fatal prints an error message in red and exits.
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Error(format, v...)
	os.Exit(1)
}
