package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/source"
	"github.com/windowsadmins/msiinv/pkg/source/sourcetest"
)

func TestSnapshotSource(t *testing.T) {
	snap := sourcetest.Fixture()

	products, err := source.Collect("products", snap.EnumProducts)
	require.NoError(t, err)
	require.Equal(t, []string{sourcetest.ProductA, sourcetest.ProductB, sourcetest.ProductC}, products)

	require.Equal(t, installstate.Default, snap.ProductState(sourcetest.ProductA))
	require.Equal(t, installstate.Unknown, snap.ProductState("{NOPE}"))

	name, ok := snap.ProductProperty(sourcetest.ProductA, source.PropertyProductName)
	require.True(t, ok)
	require.Equal(t, "Alpha Suite", name)

	name, ok = snap.ProductProperty(sourcetest.Gone, source.PropertyProductName)
	require.True(t, ok, "unregistered products keep their name")
	require.Equal(t, "Old Product", name)

	_, ok = snap.ProductProperty("{NOPE}", source.PropertyProductName)
	require.False(t, ok)

	state, path := snap.ComponentPath(sourcetest.ProductA, sourcetest.C5)
	require.Equal(t, installstate.Local, state)
	require.Equal(t, `C:\Common\common.dll`, path)

	_, err = snap.EnumClients("{UNKNOWN}", 0)
	require.Error(t, err)
	require.NotErrorIs(t, err, source.ErrNoMoreItems)

	usage, ok := snap.FeatureUsage(sourcetest.ProductA, "Core")
	require.True(t, ok)
	require.EqualValues(t, 4, usage.UseCount)
	_, ok = snap.FeatureUsage(sourcetest.ProductA, "Docs")
	require.False(t, ok)
}

func TestSnapshotSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshot.yaml")
	snap := sourcetest.Fixture()
	require.NoError(t, snap.Save(path))

	loaded, err := source.LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, snap.Products, loaded.Products)
	require.Equal(t, snap.Components, loaded.Components)
	require.Equal(t, snap.Unregistered, loaded.Unregistered)
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := source.LoadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestCaptureReproducesSource(t *testing.T) {
	orig := sourcetest.Fixture()

	captured, err := source.Capture(orig, "host1")
	require.NoError(t, err)
	require.Equal(t, "host1", captured.Host)
	require.Len(t, captured.Products, len(orig.Products))
	require.Len(t, captured.Components, len(orig.Components))

	for _, c := range orig.Components {
		for i := 0; ; i++ {
			want, werr := orig.EnumClients(c.Code, i)
			got, gerr := captured.EnumClients(c.Code, i)
			require.Equal(t, want, got)
			require.Equal(t, werr, gerr)
			if werr != nil {
				break
			}
		}
	}

	name, ok := captured.ProductProperty(sourcetest.Gone, source.PropertyProductName)
	require.True(t, ok)
	require.Equal(t, "Old Product", name)

	state, path := captured.ComponentPath(sourcetest.ProductA, sourcetest.C1)
	require.Equal(t, installstate.Local, state)
	require.Equal(t, `C:\Alpha\alpha.exe`, path)
}

func TestCaptureAbortsOnCorruption(t *testing.T) {
	src := sourcetest.NewFaulty(sourcetest.Fixture())
	src.Fail["components"] = 2

	snap, err := source.Capture(src, "host1")
	var enumErr *source.EnumerationError
	require.ErrorAs(t, err, &enumErr)
	require.Len(t, snap.Components, 2)
	require.Len(t, snap.Products, 3)
}

func TestLoadSnapshotUnregisteredKeysAnyCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hand.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: ws01
products: []
components:
  - code: "{C0000000-0000-0000-0000-0000000000AA}"
    clients:
      - product: "{DEADBEEF-0000-0000-0000-00000000ABCD}"
unregistered:
  "{deadbeef-0000-0000-0000-00000000abcd}":
    ProductName: Retired Tool
`), 0644))

	snap, err := source.LoadSnapshot(path)
	require.NoError(t, err)

	name, ok := snap.ProductProperty("{DEADBEEF-0000-0000-0000-00000000ABCD}", source.PropertyProductName)
	require.True(t, ok)
	require.Equal(t, "Retired Tool", name)
}
