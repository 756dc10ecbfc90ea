//go:build !windows

package keypath

import (
	"os"

	"github.com/windowsadmins/msiinv/pkg/hostinfo"
)

func inspectRegistry(info *Info, rp RegistryPath, platform hostinfo.Platform) {
	info.Error = "registry key paths can only be checked on Windows"
}

func fileDetails(info *Info, st os.FileInfo, platform hostinfo.Platform) {
	if st.Mode().Perm()&0200 == 0 {
		info.Attributes = append(info.Attributes, "READONLY")
	}
	if st.IsDir() {
		info.Attributes = append(info.Attributes, "DIRECTORY")
	}
}
