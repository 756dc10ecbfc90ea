//go:build windows

package msi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/logging"
	"github.com/windowsadmins/msiinv/pkg/source"
)

const (
	guidChars          = 39 // GUID plus terminator
	featureChars       = 39 // MAX_FEATURE_CHARS plus terminator
	initialBufferChars = 256
	installUILevelNone = 2
	userInfoPresent    = 1
	userInfoMoreData   = -3
)

var (
	modmsi = windows.NewLazySystemDLL("msi.dll")

	procMsiEnumProductsW            = modmsi.NewProc("MsiEnumProductsW")
	procMsiEnumComponentsW          = modmsi.NewProc("MsiEnumComponentsW")
	procMsiEnumClientsW             = modmsi.NewProc("MsiEnumClientsW")
	procMsiEnumFeaturesW            = modmsi.NewProc("MsiEnumFeaturesW")
	procMsiEnumComponentQualifiersW = modmsi.NewProc("MsiEnumComponentQualifiersW")
	procMsiEnumPatchesW             = modmsi.NewProc("MsiEnumPatchesW")
	procMsiQueryProductStateW       = modmsi.NewProc("MsiQueryProductStateW")
	procMsiQueryFeatureStateW       = modmsi.NewProc("MsiQueryFeatureStateW")
	procMsiGetFeatureUsageW         = modmsi.NewProc("MsiGetFeatureUsageW")
	procMsiGetComponentPathW        = modmsi.NewProc("MsiGetComponentPathW")
	procMsiGetProductInfoW          = modmsi.NewProc("MsiGetProductInfoW")
	procMsiGetUserInfoW             = modmsi.NewProc("MsiGetUserInfoW")
	procMsiGetFileVersionW          = modmsi.NewProc("MsiGetFileVersionW")
	procMsiSetInternalUI            = modmsi.NewProc("MsiSetInternalUI")
)

// Installer is the live registry, read through msi.dll.
type Installer struct {
	previousUILevel uintptr
}

var _ source.Source = (*Installer)(nil)

// Open loads msi.dll and silences installer UI for the lifetime of the Installer.
func Open() (*Installer, error) {
	if err := modmsi.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	prev, _, _ := procMsiSetInternalUI.Call(installUILevelNone, 0)
	logging.Debug("Opened Windows Installer API")
	return &Installer{previousUILevel: prev}, nil
}

// Close restores the previous installer UI level.
func (in *Installer) Close() error {
	procMsiSetInternalUI.Call(in.previousUILevel, 0)
	return nil
}

func utf16Ptr(s string) *uint16 {
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		p, _ = windows.UTF16PtrFromString("")
	}
	return p
}

func ptr(p *uint16) uintptr { return uintptr(unsafe.Pointer(p)) }

func enumResult(op string, r uintptr) error {
	switch uint32(r) {
	case errorSuccess:
		return nil
	case errorNoMoreItems:
		return source.ErrNoMoreItems
	default:
		return &Error{Op: op, Code: uint32(r)}
	}
}

// enumGUID runs an enumeration call that fills a single GUID buffer.
func enumGUID(op string, call func(buf *uint16) uintptr) (string, error) {
	buf := make([]uint16, guidChars)
	if err := enumResult(op, call(&buf[0])); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf), nil
}

// queryString calls an API taking a (buffer, *size) pair, growing the buffer on ERROR_MORE_DATA.
func queryString(op string, call func(buf *uint16, size *uint32) uintptr) (string, error) {
	size := uint32(initialBufferChars)
	for {
		buf := make([]uint16, size)
		n := size
		r := uint32(call(&buf[0], &n))
		switch r {
		case errorSuccess:
			return windows.UTF16ToString(buf), nil
		case errorMoreData:
			size = n + 1
		default:
			return "", &Error{Op: op, Code: r}
		}
	}
}

func (in *Installer) EnumProducts(index int) (string, error) {
	return enumGUID("MsiEnumProducts", func(buf *uint16) uintptr {
		r, _, _ := procMsiEnumProductsW.Call(uintptr(index), ptr(buf))
		return r
	})
}

func (in *Installer) EnumComponents(index int) (string, error) {
	return enumGUID("MsiEnumComponents", func(buf *uint16) uintptr {
		r, _, _ := procMsiEnumComponentsW.Call(uintptr(index), ptr(buf))
		return r
	})
}

func (in *Installer) EnumClients(component string, index int) (string, error) {
	c := utf16Ptr(component)
	return enumGUID("MsiEnumClients", func(buf *uint16) uintptr {
		r, _, _ := procMsiEnumClientsW.Call(ptr(c), uintptr(index), ptr(buf))
		return r
	})
}

func (in *Installer) EnumFeatures(product string, index int) (source.Feature, error) {
	p := utf16Ptr(product)
	name := make([]uint16, featureChars)
	parent := make([]uint16, featureChars)
	r, _, _ := procMsiEnumFeaturesW.Call(ptr(p), uintptr(index), ptr(&name[0]), ptr(&parent[0]))
	if err := enumResult("MsiEnumFeatures", r); err != nil {
		return source.Feature{}, err
	}
	return source.Feature{Name: windows.UTF16ToString(name), Parent: windows.UTF16ToString(parent)}, nil
}

func (in *Installer) EnumQualifiers(component string, index int) (source.Qualifier, error) {
	c := utf16Ptr(component)
	qSize, dSize := uint32(initialBufferChars), uint32(initialBufferChars)
	for {
		qBuf := make([]uint16, qSize)
		dBuf := make([]uint16, dSize)
		qn, dn := qSize, dSize
		r, _, _ := procMsiEnumComponentQualifiersW.Call(ptr(c), uintptr(index),
			ptr(&qBuf[0]), uintptr(unsafe.Pointer(&qn)),
			ptr(&dBuf[0]), uintptr(unsafe.Pointer(&dn)))
		if uint32(r) == errorMoreData {
			qSize, dSize = max(qSize, qn+1), max(dSize, dn+1)
			continue
		}
		if err := enumResult("MsiEnumComponentQualifiers", r); err != nil {
			return source.Qualifier{}, err
		}
		return source.Qualifier{Name: windows.UTF16ToString(qBuf), ApplicationData: windows.UTF16ToString(dBuf)}, nil
	}
}

func (in *Installer) EnumPatches(product string, index int) (source.Patch, error) {
	p := utf16Ptr(product)
	size := uint32(initialBufferChars)
	for {
		patch := make([]uint16, guidChars)
		transforms := make([]uint16, size)
		n := size
		r, _, _ := procMsiEnumPatchesW.Call(ptr(p), uintptr(index), ptr(&patch[0]), ptr(&transforms[0]), uintptr(unsafe.Pointer(&n)))
		if uint32(r) == errorMoreData {
			size = n + 1
			continue
		}
		if err := enumResult("MsiEnumPatches", r); err != nil {
			return source.Patch{}, err
		}
		return source.Patch{Code: windows.UTF16ToString(patch), Transforms: windows.UTF16ToString(transforms)}, nil
	}
}

func (in *Installer) ProductState(product string) installstate.InstallState {
	r, _, _ := procMsiQueryProductStateW.Call(ptr(utf16Ptr(product)))
	return installstate.InstallState(int32(r))
}

func (in *Installer) FeatureState(product, feature string) installstate.InstallState {
	r, _, _ := procMsiQueryFeatureStateW.Call(ptr(utf16Ptr(product)), ptr(utf16Ptr(feature)))
	return installstate.InstallState(int32(r))
}

func (in *Installer) FeatureUsage(product, feature string) (source.FeatureUsage, bool) {
	var count uint32
	var date uint16
	r, _, _ := procMsiGetFeatureUsageW.Call(ptr(utf16Ptr(product)), ptr(utf16Ptr(feature)),
		uintptr(unsafe.Pointer(&count)), uintptr(unsafe.Pointer(&date)))
	if uint32(r) != errorSuccess {
		return source.FeatureUsage{}, false
	}
	return source.FeatureUsage{UseCount: count, LastUsed: DecodeUsageDate(date)}, true
}

func (in *Installer) ComponentPath(product, component string) (installstate.InstallState, string) {
	p, c := utf16Ptr(product), utf16Ptr(component)
	size := uint32(initialBufferChars)
	for {
		buf := make([]uint16, size)
		n := size
		r, _, _ := procMsiGetComponentPathW.Call(ptr(p), ptr(c), ptr(&buf[0]), uintptr(unsafe.Pointer(&n)))
		state := installstate.InstallState(int32(r))
		if state == installstate.MoreData {
			size = n + 1
			continue
		}
		return state, windows.UTF16ToString(buf)
	}
}

func (in *Installer) ProductProperty(product, property string) (string, bool) {
	p, prop := utf16Ptr(product), utf16Ptr(property)
	v, err := queryString("MsiGetProductInfo", func(buf *uint16, size *uint32) uintptr {
		r, _, _ := procMsiGetProductInfoW.Call(ptr(p), ptr(prop), ptr(buf), uintptr(unsafe.Pointer(size)))
		return r
	})
	if err != nil {
		return "", false
	}
	return v, true
}

func (in *Installer) UserInfo(product string) (source.UserInfo, bool) {
	p := utf16Ptr(product)
	size := uint32(initialBufferChars)
	for {
		user, org, serial := make([]uint16, size), make([]uint16, size), make([]uint16, size)
		un, on, sn := size, size, size
		r, _, _ := procMsiGetUserInfoW.Call(ptr(p),
			ptr(&user[0]), uintptr(unsafe.Pointer(&un)),
			ptr(&org[0]), uintptr(unsafe.Pointer(&on)),
			ptr(&serial[0]), uintptr(unsafe.Pointer(&sn)))
		switch int32(r) {
		case userInfoMoreData:
			size = max(un, on, sn) + 1
			continue
		case userInfoPresent:
			return source.UserInfo{
				User:         windows.UTF16ToString(user),
				Organization: windows.UTF16ToString(org),
				Serial:       windows.UTF16ToString(serial),
			}, true
		default:
			return source.UserInfo{}, false
		}
	}
}

// GetFileVersion reads the version resource of a file.
func GetFileVersion(path string) (FileVersion, error) {
	if err := procMsiGetFileVersionW.Find(); err != nil {
		return FileVersion{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	p := utf16Ptr(path)
	size := uint32(initialBufferChars)
	for {
		ver, lang := make([]uint16, size), make([]uint16, size)
		vn, ln := size, size
		r, _, _ := procMsiGetFileVersionW.Call(ptr(p),
			ptr(&ver[0]), uintptr(unsafe.Pointer(&vn)),
			ptr(&lang[0]), uintptr(unsafe.Pointer(&ln)))
		switch uint32(r) {
		case errorSuccess:
			return FileVersion{Version: windows.UTF16ToString(ver), Language: windows.UTF16ToString(lang)}, nil
		case errorMoreData:
			size = max(vn, ln) + 1
		default:
			return FileVersion{}, &Error{Op: "MsiGetFileVersion", Code: uint32(r)}
		}
	}
}
