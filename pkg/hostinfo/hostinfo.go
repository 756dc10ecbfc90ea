// pkg/hostinfo/hostinfo.go - platform facts computed once per run.

package hostinfo

import (
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/windowsadmins/msiinv/pkg/logging"
)

// Platform describes the machine being inventoried. It is detected once at startup and
// passed to anything that branches on platform capability.
type Platform struct {
	Hostname        string `yaml:"hostname" json:"hostname"`
	OS              string `yaml:"os" json:"os"`
	Platform        string `yaml:"platform,omitempty" json:"platform,omitempty"`
	PlatformFamily  string `yaml:"platform_family,omitempty" json:"platform_family,omitempty"`
	PlatformVersion string `yaml:"platform_version,omitempty" json:"platform_version,omitempty"`
	KernelVersion   string `yaml:"kernel_version,omitempty" json:"kernel_version,omitempty"`
	Arch            string `yaml:"arch" json:"arch"`
}

// Detect gathers platform facts. Failures fall back to what the Go runtime knows.
func Detect() Platform {
	p := Platform{OS: runtime.GOOS, Arch: normalizeArch(runtime.GOARCH)}

	info, err := host.Info()
	if err != nil {
		logging.Warn("Failed to query host information", "error", err)
		p.Hostname, _ = os.Hostname()
		return p
	}

	p.Hostname = info.Hostname
	p.Platform = info.Platform
	p.PlatformFamily = info.PlatformFamily
	p.PlatformVersion = info.PlatformVersion
	p.KernelVersion = info.KernelVersion
	if info.OS != "" {
		p.OS = info.OS
	}
	logging.Debug("Detected platform",
		"os", p.OS,
		"platform", p.Platform,
		"version", p.PlatformVersion,
		"kernel", p.KernelVersion,
	)
	return p
}

// IsWindows reports whether the host runs Windows.
func (p Platform) IsWindows() bool {
	return strings.EqualFold(p.OS, "windows")
}

// SupportsSecurity reports whether file and key owners can be queried.
func (p Platform) SupportsSecurity() bool {
	return p.IsWindows()
}

// Description is a one-line summary for report headers.
func (p Platform) Description() string {
	parts := []string{p.Hostname}
	if p.Platform != "" {
		parts = append(parts, p.Platform)
	} else {
		parts = append(parts, p.OS)
	}
	if p.PlatformVersion != "" {
		parts = append(parts, p.PlatformVersion)
	}
	parts = append(parts, p.Arch)
	return strings.Join(parts, " ")
}

func normalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "amd64", "x86_64":
		return "x64"
	case "386":
		return "x86"
	default:
		return arch
	}
}
