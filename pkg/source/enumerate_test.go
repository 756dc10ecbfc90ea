package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errBroken = errors.New("broken")

// pager yields items, then fails at failAt (if >= 0), otherwise reports ErrNoMoreItems.
func pager(items []string, failAt int) func(int) (string, error) {
	return func(i int) (string, error) {
		if failAt >= 0 && i >= failAt {
			return "", errBroken
		}
		if i >= len(items) {
			return "", ErrNoMoreItems
		}
		return items[i], nil
	}
}

func TestEnumerate(t *testing.T) {
	tests := []struct {
		name    string
		items   []string
		failAt  int
		want    []string
		wantN   int
		wantErr bool
	}{
		{name: "exhausted", items: []string{"a", "b", "c"}, failAt: -1, want: []string{"a", "b", "c"}, wantN: 3},
		{name: "empty", items: nil, failAt: -1, wantN: 0},
		{name: "first call fails is empty", items: []string{"a"}, failAt: 0, wantN: 0},
		{name: "later failure is fatal", items: []string{"a", "b", "c"}, failAt: 2, want: []string{"a", "b"}, wantN: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			n, err := Enumerate("test", pager(tt.items, tt.failAt), func(s string) error {
				got = append(got, s)
				return nil
			})
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantN, n)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var enumErr *EnumerationError
			require.ErrorAs(t, err, &enumErr)
			require.Equal(t, "test", enumErr.Scope)
			require.Equal(t, tt.failAt, enumErr.Index)
			require.ErrorIs(t, err, errBroken)
		})
	}
}

func TestEnumerateYieldErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	n, err := Enumerate("test", pager([]string{"a", "b", "c"}, -1), func(s string) error {
		calls++
		if s == "b" {
			return stop
		}
		return nil
	})
	require.Same(t, stop, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, calls)
}

func TestCollect(t *testing.T) {
	items, err := Collect("test", pager([]string{"x", "y"}, -1))
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, items)
}

func TestIsPermanent(t *testing.T) {
	require.True(t, IsPermanent(PermanentProductCode))
	require.True(t, IsPermanent("{00000000-0000-0000-0000-000000000000}"))
	require.False(t, IsPermanent("{00000000-0000-0000-0000-000000000001}"))
	require.False(t, IsPermanent(""))
}
