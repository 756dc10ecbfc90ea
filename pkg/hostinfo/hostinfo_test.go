package hostinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	p := Detect()
	require.NotEmpty(t, p.OS)
	require.Equal(t, normalizeArch(runtime.GOARCH), p.Arch)
	require.Equal(t, runtime.GOOS == "windows", p.IsWindows())
}

func TestPlatformCapabilities(t *testing.T) {
	win := Platform{Hostname: "ws01", OS: "windows", Platform: "Microsoft Windows 11 Pro", PlatformVersion: "10.0.22631", Arch: "x64"}
	require.True(t, win.IsWindows())
	require.True(t, win.SupportsSecurity())
	require.Equal(t, "ws01 Microsoft Windows 11 Pro 10.0.22631 x64", win.Description())

	linux := Platform{Hostname: "build", OS: "linux", Arch: "arm64"}
	require.False(t, linux.IsWindows())
	require.False(t, linux.SupportsSecurity())
	require.Equal(t, "build linux arm64", linux.Description())
}

func TestNormalizeArch(t *testing.T) {
	require.Equal(t, "x64", normalizeArch("amd64"))
	require.Equal(t, "x64", normalizeArch("x86_64"))
	require.Equal(t, "x86", normalizeArch("386"))
	require.Equal(t, "arm64", normalizeArch("arm64"))
}
