package eventlog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/msiinv/pkg/retry"
)

func stubQuerier(t *testing.T, q func() ([]Event, error)) {
	t.Helper()
	origQ, origCfg := querier, retryConfig
	querier = q
	retryConfig = retry.RetryConfig{MaxRetries: 3}
	t.Cleanup(func() {
		querier = origQ
		retryConfig = origCfg
	})
}

func TestReadFiltersAndOrders(t *testing.T) {
	now := time.Now()
	stubQuerier(t, func() ([]Event, error) {
		return []Event{
			{RecordNumber: 10, Source: "MsiInstaller", Time: now.Add(-time.Hour)},
			{RecordNumber: 12, Source: "Other", Time: now},
			{RecordNumber: 30, Source: "msiinstaller", Time: now},
			{RecordNumber: 20, Source: "MsiInstaller", Time: now.Add(-time.Minute)},
		}, nil
	})

	events, err := Read(0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, []uint32{30, 20, 10}, []uint32{events[0].RecordNumber, events[1].RecordNumber, events[2].RecordNumber})

	events, err = Read(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.EqualValues(t, 30, events[0].RecordNumber)
}

func TestReadRetriesTransientFailures(t *testing.T) {
	calls := 0
	stubQuerier(t, func() ([]Event, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("RPC server unavailable")
		}
		return []Event{{RecordNumber: 1, Source: InstallerSource}}, nil
	})

	events, err := Read(0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 2, calls)
}

func TestReadUnsupportedIsNotRetried(t *testing.T) {
	calls := 0
	stubQuerier(t, func() ([]Event, error) {
		calls++
		return nil, ErrUnsupported
	})

	_, err := Read(0)
	require.ErrorIs(t, err, ErrUnsupported)
	require.Equal(t, 1, calls)
}
