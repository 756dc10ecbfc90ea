package keypath

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/msiinv/pkg/hostinfo"
	"github.com/windowsadmins/msiinv/pkg/msi"
)

func TestParseRegistryPath(t *testing.T) {
	tests := []struct {
		path string
		want RegistryPath
		ok   bool
	}{
		{`02:SOFTWARE\Example`, RegistryPath{Root: 2, Subkey: `SOFTWARE\Example`}, true},
		{`22:SOFTWARE\Example`, RegistryPath{Root: 2, View64: true, Subkey: `SOFTWARE\Example`}, true},
		{`01:\Software\Example\Value`, RegistryPath{Root: 1, Subkey: `Software\Example\Value`}, true},
		{`00:`, RegistryPath{Root: 0}, true},
		{`04:SOFTWARE`, RegistryPath{}, false},
		{`C:\Program Files\app.exe`, RegistryPath{}, false},
		{`0`, RegistryPath{}, false},
		{``, RegistryPath{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ParseRegistryPath(tt.path)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func testPlatform() hostinfo.Platform {
	return hostinfo.Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func TestInspectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "component.dll")
	require.NoError(t, os.WriteFile(path, []byte("not really a dll"), 0644))

	info := Inspect(path, testPlatform())
	require.Equal(t, KindFile, info.Kind)
	require.EqualValues(t, 16, info.Size)
	require.False(t, info.Modified.IsZero())
	require.Empty(t, info.Error)
	require.Empty(t, info.Version)
}

func TestInspectDirectory(t *testing.T) {
	dir := t.TempDir()
	info := Inspect(dir, testPlatform())
	require.Equal(t, KindDirectory, info.Kind)
	require.Zero(t, info.Size)
	require.Contains(t, info.Attributes, "DIRECTORY")
}

func TestInspectMissing(t *testing.T) {
	info := Inspect(filepath.Join(t.TempDir(), "gone.exe"), testPlatform())
	require.Equal(t, KindMissing, info.Kind)
}

func TestInspectRegistryPath(t *testing.T) {
	info := Inspect(`02:SOFTWARE\msiinv-test-missing\Value`, testPlatform())
	if runtime.GOOS == "windows" {
		require.Equal(t, KindMissing, info.Kind)
	} else {
		require.Equal(t, KindRegistry, info.Kind)
	}
	require.Equal(t, "HKEY_LOCAL_MACHINE", info.Root)
	require.Equal(t, `SOFTWARE\msiinv-test-missing\Value`, info.Subkey)
	require.NotEmpty(t, info.Error)
}

func TestInspectEmptyAndUnparseable(t *testing.T) {
	require.Equal(t, KindUnknown, Inspect("", testPlatform()).Kind)
	require.Equal(t, KindUnknown, Inspect("9x:odd", testPlatform()).Kind)
}

func stubFileVersion(t *testing.T, fn func(string) (msi.FileVersion, error)) {
	t.Helper()
	prev := fileVersion
	fileVersion = fn
	t.Cleanup(func() { fileVersion = prev })
}

func TestInspectFileVersionOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	tests := []struct {
		name       string
		result     msi.FileVersion
		err        error
		version    string
		denied     bool
		versionErr bool
	}{
		{"versioned", msi.FileVersion{Version: "01.02.0003", Language: "1033"}, nil, "1.2.3", false, false},
		{"data file", msi.FileVersion{}, &msi.Error{Op: "MsiGetFileVersion", Code: 1006}, "", false, false},
		{"bad resource", msi.FileVersion{}, &msi.Error{Op: "MsiGetFileVersion", Code: 13}, "", false, false},
		{"unreadable", msi.FileVersion{}, &msi.Error{Op: "MsiGetFileVersion", Code: 5}, "", true, false},
		{"other failure", msi.FileVersion{}, &msi.Error{Op: "MsiGetFileVersion", Code: 1605}, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubFileVersion(t, func(string) (msi.FileVersion, error) { return tt.result, tt.err })

			info := Inspect(path, testPlatform())
			require.Equal(t, KindFile, info.Kind)
			require.Equal(t, tt.version, info.Version)
			require.Equal(t, tt.denied, info.AccessDenied)
			require.Equal(t, tt.versionErr, info.VersionErr != "")
		})
	}
}
