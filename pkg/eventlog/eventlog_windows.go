//go:build windows

package eventlog

import (
	"fmt"
	"time"

	"github.com/yusufpapurcu/wmi"
)

// Win32_NTLogEvent is the WMI class for event log records.
type Win32_NTLogEvent struct {
	RecordNumber  uint32    `wmi:"RecordNumber"`
	EventCode     uint16    `wmi:"EventCode"`
	Type          string    `wmi:"Type"`
	SourceName    string    `wmi:"SourceName"`
	Message       string    `wmi:"Message"`
	TimeGenerated time.Time `wmi:"TimeGenerated"`
}

func queryInstallerEvents() ([]Event, error) {
	var records []Win32_NTLogEvent
	q := fmt.Sprintf("SELECT RecordNumber, EventCode, Type, SourceName, Message, TimeGenerated "+
		"FROM Win32_NTLogEvent WHERE Logfile = 'Application' AND SourceName = '%s'", InstallerSource)
	if err := wmi.Query(q, &records); err != nil {
		return nil, fmt.Errorf("querying installer events: %w", err)
	}

	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, Event{
			RecordNumber: r.RecordNumber,
			Time:         r.TimeGenerated,
			Type:         r.Type,
			EventID:      uint32(r.EventCode),
			Source:       r.SourceName,
			Message:      r.Message,
		})
	}
	return events, nil
}
