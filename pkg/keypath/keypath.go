// pkg/keypath/keypath.go - metadata for component key paths.
//
// A component key path is either a file or directory path, or a registry key written
// as "NN:subkey" where the second digit selects the root (0 HKCR, 1 HKCU, 2 HKLM, 3 HKU).

package keypath

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/windowsadmins/msiinv/pkg/hostinfo"
	"github.com/windowsadmins/msiinv/pkg/msi"
	"github.com/windowsadmins/msiinv/pkg/version"
)

// Kind classifies a key path.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindRegistry  Kind = "registry"
	KindMissing   Kind = "missing"
	KindUnknown   Kind = "unknown"
)

// RegistryRoots are the predefined keys a registry key path may name, by digit.
var RegistryRoots = []string{"HKEY_CLASSES_ROOT", "HKEY_CURRENT_USER", "HKEY_LOCAL_MACHINE", "HKEY_USERS"}

// Info is what could be learned about a key path.
type Info struct {
	Path         string    `yaml:"path" json:"path"`
	Kind         Kind      `yaml:"kind" json:"kind"`
	Version      string    `yaml:"version,omitempty" json:"version,omitempty"`
	Language     string    `yaml:"language,omitempty" json:"language,omitempty"`
	VersionErr   string    `yaml:"version_error,omitempty" json:"version_error,omitempty"`
	// AccessDenied is set when the file exists but its contents could not be read.
	AccessDenied bool      `yaml:"access_denied,omitempty" json:"access_denied,omitempty"`
	Owner        string    `yaml:"owner,omitempty" json:"owner,omitempty"`
	Attributes   []string  `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Size         int64     `yaml:"size,omitempty" json:"size,omitempty"`
	Created      time.Time `yaml:"created,omitempty" json:"created,omitempty"`
	Modified     time.Time `yaml:"modified,omitempty" json:"modified,omitempty"`
	Root         string    `yaml:"root,omitempty" json:"root,omitempty"`
	Subkey       string    `yaml:"subkey,omitempty" json:"subkey,omitempty"`
	Error        string    `yaml:"error,omitempty" json:"error,omitempty"`
}

// RegistryPath is a parsed registry key path.
type RegistryPath struct {
	Root   int
	View64 bool // a leading 2 selects the 64-bit registry view
	Subkey string
}

// ParseRegistryPath splits "NN:subkey". ok is false when path is not a registry key path.
func ParseRegistryPath(path string) (RegistryPath, bool) {
	if len(path) < 2 || path[0] < '0' || path[0] > '9' {
		return RegistryPath{}, false
	}
	if path[1] < '0' || path[1] > '3' {
		return RegistryPath{}, false
	}
	subkey := strings.TrimPrefix(path[2:], ":")
	subkey = strings.TrimPrefix(subkey, `\`)
	return RegistryPath{Root: int(path[1] - '0'), View64: path[0] == '2', Subkey: subkey}, true
}

// Inspect gathers metadata for a component key path. Owner and security details are
// only queried when platform supports them.
func Inspect(path string, platform hostinfo.Platform) Info {
	info := Info{Path: path, Kind: KindUnknown}
	if path == "" {
		return info
	}

	if rp, ok := ParseRegistryPath(path); ok {
		info.Kind = KindRegistry
		info.Root = RegistryRoots[rp.Root]
		info.Subkey = rp.Subkey
		inspectRegistry(&info, rp, platform)
		return info
	}
	if path[0] >= '0' && path[0] <= '9' {
		return info
	}

	inspectFile(&info, platform)
	return info
}

// fileVersion reads version resources; replaced in tests.
var fileVersion = msi.GetFileVersion

func inspectFile(info *Info, platform hostinfo.Platform) {
	st, statErr := os.Stat(info.Path)

	fv, err := fileVersion(info.Path)
	switch {
	case err == nil:
		info.Version = version.Canonical(fv.Version)
		info.Language = fv.Language
	case errors.Is(err, msi.ErrUnsupported), msi.IsFileNotFound(err), msi.IsNoVersion(err):
		// Data files and directories have no version resource.
	case msi.IsAccessDenied(err):
		info.AccessDenied = true
	default:
		info.VersionErr = err.Error()
	}

	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			info.Kind = KindMissing
		} else {
			info.Error = statErr.Error()
		}
		return
	}

	if st.IsDir() {
		info.Kind = KindDirectory
	} else {
		info.Kind = KindFile
		info.Size = st.Size()
	}
	info.Modified = st.ModTime()
	fileDetails(info, st, platform)
}
