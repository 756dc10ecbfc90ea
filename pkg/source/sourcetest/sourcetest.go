// Package sourcetest provides registry fixtures for tests.
package sourcetest

import (
	"errors"

	"github.com/windowsadmins/msiinv/pkg/installstate"
	"github.com/windowsadmins/msiinv/pkg/source"
)

// ErrCorrupt is the failure injected by Faulty.
var ErrCorrupt = errors.New("registry data is corrupt")

// Faulty wraps a Source and fails chosen enumerations at a chosen index.
//
// Fail is keyed by scope: "products", "components", or "clients:", "features:",
// "qualifiers:" and "patches:" followed by a component or product code.
type Faulty struct {
	source.Source
	Fail map[string]int

	// Calls counts enumeration calls per scope.
	Calls map[string]int
}

// NewFaulty wraps src.
func NewFaulty(src source.Source) *Faulty {
	return &Faulty{Source: src, Fail: make(map[string]int), Calls: make(map[string]int)}
}

func (f *Faulty) fails(scope string, index int) bool {
	f.Calls[scope]++
	at, ok := f.Fail[scope]
	return ok && index >= at
}

func (f *Faulty) EnumProducts(index int) (string, error) {
	if f.fails("products", index) {
		return "", ErrCorrupt
	}
	return f.Source.EnumProducts(index)
}

func (f *Faulty) EnumComponents(index int) (string, error) {
	if f.fails("components", index) {
		return "", ErrCorrupt
	}
	return f.Source.EnumComponents(index)
}

func (f *Faulty) EnumClients(component string, index int) (string, error) {
	if f.fails("clients:"+component, index) {
		return "", ErrCorrupt
	}
	return f.Source.EnumClients(component, index)
}

func (f *Faulty) EnumFeatures(product string, index int) (source.Feature, error) {
	if f.fails("features:"+product, index) {
		return source.Feature{}, ErrCorrupt
	}
	return f.Source.EnumFeatures(product, index)
}

func (f *Faulty) EnumQualifiers(component string, index int) (source.Qualifier, error) {
	if f.fails("qualifiers:"+component, index) {
		return source.Qualifier{}, ErrCorrupt
	}
	return f.Source.EnumQualifiers(component, index)
}

func (f *Faulty) EnumPatches(product string, index int) (source.Patch, error) {
	if f.fails("patches:"+product, index) {
		return source.Patch{}, ErrCorrupt
	}
	return f.Source.EnumPatches(product, index)
}

// Product codes used by Fixture.
const (
	ProductA = "{AAAAAAAA-0000-0000-0000-000000000001}"
	ProductB = "{BBBBBBBB-0000-0000-0000-000000000002}"
	ProductC = "{CCCCCCCC-0000-0000-0000-000000000003}"
	Gone     = "{DEADDEAD-0000-0000-0000-000000000009}"
)

// Component codes used by Fixture.
const (
	// C1: permanent, A twice. Parented, not shared.
	C1 = "{C0000000-0000-0000-0000-000000000001}"
	// C2: three clients that are not registered. Orphaned and shared.
	C2 = "{C0000000-0000-0000-0000-000000000002}"
	// C3: only the permanent placeholder. Orphaned and permanent.
	C3 = "{C0000000-0000-0000-0000-000000000003}"
	// C4: A and B. Parented, not shared.
	C4 = "{C0000000-0000-0000-0000-000000000004}"
	// C5: A, B and C. Shared.
	C5 = "{C0000000-0000-0000-0000-000000000005}"
	// C6: B only, with qualifiers.
	C6 = "{C0000000-0000-0000-0000-000000000006}"
)

// Fixture builds a small registry exercising every classification.
func Fixture() *source.Snapshot {
	perm := source.PermanentProductCode
	return &source.Snapshot{
		Host: "fixture",
		Products: []source.SnapshotProduct{
			{
				Code:  ProductA,
				State: installstate.Default,
				Properties: map[string]string{
					source.PropertyProductName:    "Alpha Suite",
					source.PropertyVersionString:  "01.02.0300",
					source.PropertyPublisher:      "Example Corp",
					source.PropertyPackageCode:    "{PKG-A}",
					source.PropertyAssignmentType: "1",
					source.PropertyLocalPackage:   `C:\Windows\Installer\a.msi`,
					source.PropertyInstallDate:    "20240131",
				},
				User: &source.UserInfo{User: "Pat", Organization: "Example Corp", Serial: "123-456"},
				Features: []source.SnapshotFeature{
					{Name: "Core", State: installstate.Local, Usage: &source.FeatureUsage{UseCount: 4}},
					{Name: "Docs", Parent: "Core", State: installstate.Absent},
					{Name: "Legacy", Parent: "Core", State: installstate.Broken},
				},
				Patches: []source.Patch{{Code: "{PATCH-1}", Transforms: ":patch.mst"}},
			},
			{
				Code:  ProductB,
				State: installstate.Advertised,
				Properties: map[string]string{
					source.PropertyProductName:   "Beta Tools",
					source.PropertyVersionString: "2.0",
					source.PropertyPackageCode:   "{PKG-B}",
				},
				Features: []source.SnapshotFeature{
					{Name: "Main", State: installstate.Advertised},
				},
			},
			{
				Code:  ProductC,
				State: installstate.Default,
				Properties: map[string]string{
					source.PropertyProductName: "Gamma Runtime",
				},
			},
		},
		Components: []source.SnapshotComponent{
			{Code: C1, Clients: []source.SnapshotClient{
				{Product: perm},
				{Product: ProductA, State: installstate.Local, Path: `C:\Alpha\alpha.exe`},
				{Product: ProductA, State: installstate.Local, Path: `C:\Alpha\alpha.exe`},
			}},
			{Code: C2, Clients: []source.SnapshotClient{
				{Product: Gone, State: installstate.Local, Path: `C:\Old\old.dll`},
				{Product: "{D0000000-0000-0000-0000-000000000001}"},
				{Product: "{D0000000-0000-0000-0000-000000000002}"},
			}},
			{Code: C3, Clients: []source.SnapshotClient{
				{Product: perm, State: installstate.Local, Path: `02:SOFTWARE\Example\Shared`},
			}},
			{Code: C4, Clients: []source.SnapshotClient{
				{Product: ProductA, State: installstate.Source, Path: `C:\Alpha\data`},
				{Product: ProductB, State: installstate.Advertised},
			}},
			{Code: C5, Clients: []source.SnapshotClient{
				{Product: ProductA, State: installstate.Local, Path: `C:\Common\common.dll`},
				{Product: ProductB, State: installstate.Absent, Path: `C:\Common\common.dll`},
				{Product: ProductC, State: installstate.Local, Path: `C:\Common\common.dll`},
			}},
			{Code: C6,
				Clients: []source.SnapshotClient{
					{Product: ProductB, State: installstate.InstallState(9), Path: `C:\Beta\beta.dll`},
				},
				Qualifiers: []source.Qualifier{{Name: "en-us", ApplicationData: "English"}, {Name: "de-de"}},
			},
		},
		Unregistered: map[string]map[string]string{
			Gone: {source.PropertyProductName: "Old Product"},
		},
	}
}
