//go:build windows

package keypath

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/msiinv/pkg/hostinfo"
)

var rootKeys = []registry.Key{registry.CLASSES_ROOT, registry.CURRENT_USER, registry.LOCAL_MACHINE, registry.USERS}

type attributeName struct {
	bit  uint32
	name string
}

var attributeNames = []attributeName{
	{0x00000020, "ARCHIVE"},
	{0x00000004, "SYSTEM"},
	{0x00000002, "HIDDEN"},
	{0x00000080, "NORMAL"},
	{0x00000001, "READONLY"},
	{0x00000800, "COMPRESSED"},
	{0x00000010, "DIRECTORY"},
	{0x00000100, "TEMPORARY"},
	{0x00004000, "ENCRYPTED"},
	{0x00002000, "NOT_CONTENT_INDEXED"},
	{0x00001000, "OFFLINE"},
	{0x00000400, "REPARSE_POINT"},
	{0x00000200, "SPARSE_FILE"},
}

func inspectRegistry(info *Info, rp RegistryPath, platform hostinfo.Platform) {
	access := uint32(registry.READ)
	if rp.View64 {
		access |= registry.WOW64_64KEY
	}

	key, err := registry.OpenKey(rootKeys[rp.Root], rp.Subkey, access)
	if err != nil && errors.Is(err, registry.ErrNotExist) {
		// The last segment of a key path may name a value rather than a key.
		if i := strings.LastIndex(rp.Subkey, `\`); i > 0 {
			key, err = registry.OpenKey(rootKeys[rp.Root], rp.Subkey[:i], access)
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotExist):
			info.Kind = KindMissing
			info.Error = "key not found"
		case errors.Is(err, windows.ERROR_ACCESS_DENIED):
			info.Error = "access denied"
		default:
			info.Error = err.Error()
		}
		return
	}
	defer key.Close()

	if platform.SupportsSecurity() {
		if sd, err := windows.GetSecurityInfo(windows.Handle(key), windows.SE_REGISTRY_KEY, windows.OWNER_SECURITY_INFORMATION); err == nil {
			info.Owner = ownerOf(sd)
		}
		if st, err := key.Stat(); err == nil {
			info.Modified = st.ModTime()
		}
	}
}

func fileDetails(info *Info, st os.FileInfo, platform hostinfo.Platform) {
	if data, ok := st.Sys().(*syscall.Win32FileAttributeData); ok {
		for _, a := range attributeNames {
			if data.FileAttributes&a.bit != 0 {
				info.Attributes = append(info.Attributes, a.name)
			}
		}
		info.Created = time.Unix(0, data.CreationTime.Nanoseconds())
	}

	if platform.SupportsSecurity() {
		if sd, err := windows.GetNamedSecurityInfo(info.Path, windows.SE_FILE_OBJECT, windows.OWNER_SECURITY_INFORMATION); err == nil {
			info.Owner = ownerOf(sd)
		}
	}
}

func ownerOf(sd *windows.SECURITY_DESCRIPTOR) string {
	sid, defaulted, err := sd.Owner()
	if err != nil || sid == nil {
		return "No owner"
	}
	if defaulted {
		return "Owner Defaulted"
	}
	account, domain, _, err := sid.LookupAccount("")
	if err != nil {
		return sid.String()
	}
	return domain + `\` + account
}
