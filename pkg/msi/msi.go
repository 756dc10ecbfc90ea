// pkg/msi/msi.go - Windows Installer (msi.dll) data source.

package msi

import (
	"errors"
	"fmt"
	"time"
)

// Win32 error codes returned by msi.dll.
const (
	errorSuccess          = 0
	errorAccessDenied     = 5
	errorInvalidParameter = 87
	errorMoreData         = 234
	errorNoMoreItems      = 259
	errorFileNotFound     = 2
	errorFileInvalid      = 1006
	errorInvalidData      = 13
	errorUnknownProduct   = 1605
	errorUnknownProperty  = 1608
	errorBadConfiguration = 1610
)

// ErrUnsupported is returned when msi.dll is not available.
var ErrUnsupported = errors.New("the Windows Installer API is only available on Windows")

// Error is a failed msi.dll call.
type Error struct {
	Op   string
	Code uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, codeText(e.Code), e.Code)
}

func codeText(code uint32) string {
	switch code {
	case errorAccessDenied:
		return "access denied"
	case errorInvalidParameter:
		return "invalid parameter"
	case errorFileNotFound:
		return "file not found"
	case errorFileInvalid:
		return "no version information"
	case errorInvalidData:
		return "version information invalid"
	case errorUnknownProduct:
		return "unknown product"
	case errorUnknownProperty:
		return "unknown property"
	case errorBadConfiguration:
		return "configuration data corrupt"
	default:
		return "unexpected error"
	}
}

// IsFileNotFound reports whether err is an msi.dll "file not found" failure.
func IsFileNotFound(err error) bool {
	var me *Error
	return errors.As(err, &me) && me.Code == errorFileNotFound
}

// IsNoVersion reports whether err means the file carries no usable version resource.
func IsNoVersion(err error) bool {
	var me *Error
	return errors.As(err, &me) && (me.Code == errorFileInvalid || me.Code == errorInvalidData)
}

// IsAccessDenied reports whether err is an access failure.
func IsAccessDenied(err error) bool {
	var me *Error
	return errors.As(err, &me) && me.Code == errorAccessDenied
}

// DecodeUsageDate unpacks the DOS-style date MsiGetFeatureUsage returns:
// bits 9-15 are years since 1980, bits 5-8 the month and bits 0-4 the day.
// A zero value means the feature was never used.
func DecodeUsageDate(packed uint16) time.Time {
	if packed == 0 {
		return time.Time{}
	}
	year := int(packed>>9) + 1980
	month := time.Month((packed >> 5) & 0x0F)
	day := int(packed & 0x1F)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FileVersion is the version resource of a file as reported by MsiGetFileVersion.
type FileVersion struct {
	Version  string
	Language string
}
