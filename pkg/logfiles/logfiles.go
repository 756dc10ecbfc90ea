// pkg/logfiles/logfiles.go - locate Windows Installer log files.

package logfiles

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/windowsadmins/msiinv/pkg/hostinfo"
	"github.com/windowsadmins/msiinv/pkg/logging"
)

// Pattern matches the verbose logs the installer writes to temp directories.
const Pattern = "msi*.log"

// File is one log file.
type File struct {
	Name     string    `yaml:"name" json:"name"`
	Size     int64     `yaml:"size" json:"size"`
	Modified time.Time `yaml:"modified" json:"modified"`
}

// Directory is a searched directory and the logs found in it.
type Directory struct {
	Kind  string `yaml:"kind" json:"kind"` // "user", "machine" or "configured"
	Path  string `yaml:"path" json:"path"`
	Files []File `yaml:"files,omitempty" json:"files,omitempty"`
}

// Locate lists installer logs in the user temp directory, the machine temp directory
// (Windows only) and any extra directories.
func Locate(platform hostinfo.Platform, extra []string) []Directory {
	var dirs []Directory
	seen := make(map[string]bool)
	add := func(kind, path string) {
		if path == "" {
			return
		}
		key := strings.ToLower(filepath.Clean(path))
		if seen[key] {
			return
		}
		seen[key] = true
		dirs = append(dirs, Directory{Kind: kind, Path: path, Files: scan(path)})
	}

	add("user", os.TempDir())
	if platform.IsWindows() {
		add("machine", machineTempDir())
	}
	for _, p := range extra {
		add("configured", p)
	}
	return dirs
}

// machineTempDir is where installs running as LocalSystem write their logs.
func machineTempDir() string {
	root := os.Getenv("SystemRoot")
	if root == "" {
		root = os.Getenv("windir")
	}
	if root == "" {
		return ""
	}
	return filepath.Join(root, "Temp")
}

func scan(dir string) []File {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Debug("Cannot read log directory", "path", dir, "error", err)
		return nil
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(Pattern, strings.ToLower(entry.Name())); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: entry.Name(), Size: info.Size(), Modified: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}
