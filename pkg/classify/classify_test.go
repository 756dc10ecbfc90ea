package classify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/msiinv/pkg/classify"
	"github.com/windowsadmins/msiinv/pkg/filter"
	"github.com/windowsadmins/msiinv/pkg/source"
	"github.com/windowsadmins/msiinv/pkg/source/sourcetest"
)

func recordFor(t *testing.T, res *classify.Result, component string) classify.Record {
	t.Helper()
	for _, r := range res.Records {
		if r.Component == component {
			return r
		}
	}
	t.Fatalf("no record for %s", component)
	return classify.Record{}
}

func TestSharedThreshold(t *testing.T) {
	tests := []struct {
		clients   int
		permanent bool
		shared    bool
	}{
		{1, false, false},
		{2, false, false},
		{3, false, true},
		{1, true, false},
		{3, true, false},
		{4, true, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.shared, classify.IsShared(tt.clients, tt.permanent),
			"clients=%d permanent=%v", tt.clients, tt.permanent)
	}
}

func TestRunClassifiesFixture(t *testing.T) {
	res, err := classify.New(sourcetest.Fixture()).Run()
	require.NoError(t, err)

	require.Equal(t, classify.Totals{
		Components:           6,
		Unaccounted:          2,
		Permanent:            2,
		PermanentAndParented: 1,
		Shared:               2,
	}, res.Totals)

	order := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		order = append(order, r.Component)
	}
	require.Equal(t, []string{
		sourcetest.C1, sourcetest.C2, sourcetest.C3, sourcetest.C4, sourcetest.C5, sourcetest.C6,
	}, order, "records follow enumeration order")
}

func TestPermanentAndParented(t *testing.T) {
	res, err := classify.New(sourcetest.Fixture()).Run()
	require.NoError(t, err)

	c1 := recordFor(t, res, sourcetest.C1)
	require.Equal(t, 3, c1.ClientCount)
	require.True(t, c1.HasPermanentClient)
	require.True(t, c1.HasLiveParent)
	require.False(t, c1.IsShared)
	require.False(t, c1.IsOrphaned())
	require.True(t, c1.IsPermanentAndParented())
	require.False(t, c1.Listed(true, true))
}

func TestSharedAndOrphaned(t *testing.T) {
	res, err := classify.New(sourcetest.Fixture(), classify.WithPaths(sourcetest.Fixture())).Run()
	require.NoError(t, err)

	c2 := recordFor(t, res, sourcetest.C2)
	require.Equal(t, 3, c2.ClientCount)
	require.False(t, c2.HasPermanentClient)
	require.False(t, c2.HasLiveParent)
	require.True(t, c2.IsShared)
	require.True(t, c2.IsOrphaned())
	require.Equal(t, `C:\Old\old.dll`, c2.Path)
	require.Equal(t, "Old Product", c2.Clients[0].Name)

	// Orphaned takes precedence: listed under orphaned only.
	require.True(t, c2.Listed(true, false))
	require.False(t, c2.Listed(false, true))
}

func TestPermanentOnlyIsOrphaned(t *testing.T) {
	res, err := classify.New(sourcetest.Fixture()).Run()
	require.NoError(t, err)

	c3 := recordFor(t, res, sourcetest.C3)
	require.Equal(t, 1, c3.ClientCount)
	require.True(t, c3.HasPermanentClient)
	require.False(t, c3.HasLiveParent, "the placeholder is never a live product")
	require.False(t, c3.IsShared)
	require.True(t, c3.IsOrphaned())
	require.True(t, c3.Clients[0].Permanent)
	require.Empty(t, c3.Clients[0].Name)
	require.Empty(t, c3.Path, "paths are only resolved with WithPaths")
}

func TestSharedParentedListedUnderShared(t *testing.T) {
	res, err := classify.New(sourcetest.Fixture(), classify.WithPaths(sourcetest.Fixture())).Run()
	require.NoError(t, err)

	c5 := recordFor(t, res, sourcetest.C5)
	require.True(t, c5.IsShared)
	require.False(t, c5.IsOrphaned())
	require.True(t, c5.Listed(false, true))
	require.False(t, c5.Listed(true, false))
	require.Equal(t, `C:\Common\common.dll`, c5.Path)

	c4 := recordFor(t, res, sourcetest.C4)
	require.False(t, c4.IsShared, "two clients without a placeholder are not shared")
	require.Empty(t, c4.Path, "records that are never listed skip path resolution")
}

func TestFilterSuppressesLinesNotCounts(t *testing.T) {
	unfiltered, err := classify.New(sourcetest.Fixture()).Run()
	require.NoError(t, err)

	res, err := classify.New(sourcetest.Fixture(), classify.WithFilter(filter.NewProductFilter("beta"))).Run()
	require.NoError(t, err)
	require.Equal(t, unfiltered.Totals, res.Totals)

	var listed []string
	for _, r := range res.Records {
		if r.Listed(true, true) {
			listed = append(listed, r.Component)
		}
	}
	require.Equal(t, []string{sourcetest.C5}, listed)

	res, err = classify.New(sourcetest.Fixture(), classify.WithFilter(filter.NewProductFilter("old prod"))).Run()
	require.NoError(t, err)
	require.True(t, recordFor(t, res, sourcetest.C2).MatchesFilter, "unregistered clients match by name")
	require.False(t, recordFor(t, res, sourcetest.C5).MatchesFilter)
}

func TestEmptySystem(t *testing.T) {
	res, err := classify.New(&source.Snapshot{}).Run()
	require.NoError(t, err)
	require.Empty(t, res.Records)
	require.Equal(t, classify.Totals{}, res.Totals)
}

func TestFirstCallFailuresAreEmpty(t *testing.T) {
	src := sourcetest.NewFaulty(sourcetest.Fixture())
	src.Fail["components"] = 0
	res, err := classify.New(src).Run()
	require.NoError(t, err)
	require.Equal(t, classify.Totals{}, res.Totals)

	src = sourcetest.NewFaulty(sourcetest.Fixture())
	src.Fail["clients:"+sourcetest.C5] = 0
	res, err = classify.New(src).Run()
	require.NoError(t, err)

	c5 := recordFor(t, res, sourcetest.C5)
	require.Zero(t, c5.ClientCount)
	require.True(t, c5.IsOrphaned())
	require.False(t, c5.IsShared)
	require.False(t, c5.HasPermanentClient)
}

func TestProductEnumerationFailureMeansNothingIsLive(t *testing.T) {
	src := sourcetest.NewFaulty(sourcetest.Fixture())
	src.Fail["products"] = 0
	res, err := classify.New(src).Run()
	require.NoError(t, err)
	require.Equal(t, 6, res.Totals.Unaccounted)
	require.Zero(t, res.Totals.PermanentAndParented)
}

func TestCorruptionMidEnumerationIsFatal(t *testing.T) {
	src := sourcetest.NewFaulty(sourcetest.Fixture())
	src.Fail["components"] = 3
	res, err := classify.New(src).Run()

	var enumErr *source.EnumerationError
	require.ErrorAs(t, err, &enumErr)
	require.ErrorIs(t, err, sourcetest.ErrCorrupt)
	require.Len(t, res.Records, 3, "records classified before the failure are kept")
	require.Equal(t, 3, res.Totals.Components)

	src = sourcetest.NewFaulty(sourcetest.Fixture())
	src.Fail["clients:"+sourcetest.C2] = 1
	res, err = classify.New(src).Run()
	require.ErrorAs(t, err, &enumErr)
	require.Equal(t, "clients of "+sourcetest.C2, enumErr.Scope)
	require.Len(t, res.Records, 1)
}

func TestRunIsIdempotent(t *testing.T) {
	snap := sourcetest.Fixture()
	engine := classify.New(snap, classify.WithPaths(snap), classify.WithFilter(filter.NewProductFilter("alpha")))

	first, err := engine.Run()
	require.NoError(t, err)
	second, err := engine.Run()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestProductIndexBuiltOnce(t *testing.T) {
	src := sourcetest.NewFaulty(sourcetest.Fixture())
	_, err := classify.New(src).Run()
	require.NoError(t, err)
	// Three products plus the terminating call.
	require.Equal(t, 4, src.Calls["products"])
}

func TestRecordPathIsLastNonEmptyClientPath(t *testing.T) {
	snap := sourcetest.Fixture()
	res, err := classify.New(snap, classify.WithPaths(snap)).Run()
	require.NoError(t, err)

	// Only the first of C2's three clients resolves a path; later empty results do not clear it.
	require.Equal(t, `C:\Old\old.dll`, recordFor(t, res, sourcetest.C2).Path)
	require.Empty(t, recordFor(t, res, sourcetest.C1).Path, "paths are only resolved for listed records")
}
