package logfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/msiinv/pkg/hostinfo"
)

func TestLocateConfiguredDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"MSI1a2b3.LOG", "msi99.log", "setup.log", "msi.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "msidir.log"), 0755))

	dirs := Locate(hostinfo.Platform{OS: "linux"}, []string{dir, dir + string(filepath.Separator)})

	var configured []Directory
	for _, d := range dirs {
		if d.Kind == "configured" {
			configured = append(configured, d)
		}
	}
	require.Len(t, configured, 1, "duplicate directories are searched once")

	var names []string
	for _, f := range configured[0].Files {
		names = append(names, f.Name)
		require.EqualValues(t, 1, f.Size)
	}
	require.Equal(t, []string{"MSI1a2b3.LOG", "msi99.log"}, names)
}

func TestLocateAlwaysSearchesUserTemp(t *testing.T) {
	dirs := Locate(hostinfo.Platform{OS: "linux"}, nil)
	require.NotEmpty(t, dirs)
	require.Equal(t, "user", dirs[0].Kind)
	require.Equal(t, os.TempDir(), dirs[0].Path)
	for _, d := range dirs {
		require.NotEqual(t, "machine", d.Kind, "machine logs are only searched on Windows")
	}
}

func TestMachineTempDir(t *testing.T) {
	t.Setenv("SystemRoot", filepath.Join("C:", "Windows"))
	require.Equal(t, filepath.Join("C:", "Windows", "Temp"), machineTempDir())

	t.Setenv("SystemRoot", "")
	t.Setenv("windir", "")
	require.Empty(t, machineTempDir())
}
