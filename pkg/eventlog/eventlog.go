// pkg/eventlog/eventlog.go - Windows Installer entries from the Application event log.

package eventlog

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/windowsadmins/msiinv/pkg/logging"
	"github.com/windowsadmins/msiinv/pkg/retry"
)

// InstallerSource is the event source name used by the Windows Installer service.
const InstallerSource = "MsiInstaller"

// ErrUnsupported is returned on platforms without an event log.
var ErrUnsupported = errors.New("event log is only available on Windows")

// Event is one event log record.
type Event struct {
	RecordNumber uint32    `yaml:"record" json:"record"`
	Time         time.Time `yaml:"time" json:"time"`
	Type         string    `yaml:"type" json:"type"`
	EventID      uint32    `yaml:"event_id" json:"event_id"`
	Source       string    `yaml:"source" json:"source"`
	Message      string    `yaml:"message,omitempty" json:"message,omitempty"`
}

// querier fetches every installer event; replaced in tests.
var querier = queryInstallerEvents

var retryConfig = retry.RetryConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	Multiplier:      2,
}

// Read returns installer events, newest first. limit <= 0 returns all of them.
func Read(limit int) ([]Event, error) {
	var events []Event
	err := retry.Retry(retryConfig, func() error {
		var qerr error
		events, qerr = querier()
		if errors.Is(qerr, ErrUnsupported) {
			return retry.Permanent(qerr)
		}
		return qerr
	})
	if err != nil {
		return nil, err
	}

	filtered := events[:0]
	for _, e := range events {
		if strings.EqualFold(e.Source, InstallerSource) {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RecordNumber > filtered[j].RecordNumber
	})
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	logging.Debug("Read installer events", "count", len(filtered))
	return filtered, nil
}
