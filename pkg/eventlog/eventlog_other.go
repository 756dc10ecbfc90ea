//go:build !windows

package eventlog

func queryInstallerEvents() ([]Event, error) {
	return nil, ErrUnsupported
}
