//go:build !windows

package msi

import "github.com/windowsadmins/msiinv/pkg/source"

// Installer is unavailable off Windows; Open always fails.
type Installer struct {
	source.Source
}

// Open reports that the live registry cannot be read on this platform.
func Open() (*Installer, error) {
	return nil, ErrUnsupported
}

// Close is a no-op.
func (in *Installer) Close() error { return nil }

// GetFileVersion is unavailable off Windows.
func GetFileVersion(path string) (FileVersion, error) {
	return FileVersion{}, ErrUnsupported
}
