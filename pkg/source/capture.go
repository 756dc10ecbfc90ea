package source

import (
	"strings"
	"time"
)

// capturedProperties are the product properties recorded by Capture.
var capturedProperties = []string{
	PropertyProductName,
	PropertyAssignmentType,
	PropertyLocalPackage,
	PropertyInstallDate,
}

// Capture walks every enumeration of src and records it as a Snapshot.
// Enumeration errors follow the same rules as the inventory passes.
func Capture(src Source, host string) (*Snapshot, error) {
	snap := &Snapshot{
		CapturedAt: time.Now().UTC(),
		Host:       host,
	}

	registered := make(map[string]bool)
	_, err := Enumerate("products", src.EnumProducts, func(code string) error {
		registered[strings.ToUpper(code)] = true
		p := SnapshotProduct{
			Code:       code,
			State:      src.ProductState(code),
			Properties: captureProperties(src, code),
		}
		if u, ok := src.UserInfo(code); ok {
			p.User = &u
		}

		if _, err := Enumerate("features of "+code, func(i int) (Feature, error) {
			return src.EnumFeatures(code, i)
		}, func(f Feature) error {
			sf := SnapshotFeature{Name: f.Name, Parent: f.Parent, State: src.FeatureState(code, f.Name)}
			if usage, ok := src.FeatureUsage(code, f.Name); ok {
				sf.Usage = &usage
			}
			p.Features = append(p.Features, sf)
			return nil
		}); err != nil {
			return err
		}

		patches, err := Collect("patches of "+code, func(i int) (Patch, error) {
			return src.EnumPatches(code, i)
		})
		if err != nil {
			return err
		}
		p.Patches = patches

		snap.Products = append(snap.Products, p)
		return nil
	})
	if err != nil {
		return snap, err
	}

	_, err = Enumerate("components", src.EnumComponents, func(code string) error {
		c := SnapshotComponent{Code: code}
		if _, err := Enumerate("clients of "+code, func(i int) (string, error) {
			return src.EnumClients(code, i)
		}, func(client string) error {
			state, path := src.ComponentPath(client, code)
			c.Clients = append(c.Clients, SnapshotClient{Product: client, State: state, Path: path})
			if !IsPermanent(client) && !registered[strings.ToUpper(client)] {
				recordUnregistered(snap, src, client)
			}
			return nil
		}); err != nil {
			return err
		}

		qualifiers, err := Collect("qualifiers of "+code, func(i int) (Qualifier, error) {
			return src.EnumQualifiers(code, i)
		})
		if err != nil {
			return err
		}
		c.Qualifiers = qualifiers

		snap.Components = append(snap.Components, c)
		return nil
	})
	return snap, err
}

func captureProperties(src Source, product string) map[string]string {
	props := make(map[string]string)
	for _, key := range capturedProperties {
		if v, ok := src.ProductProperty(product, key); ok {
			props[key] = v
		}
	}
	for _, rp := range ReportedProperties {
		if v, ok := src.ProductProperty(product, rp.Key); ok {
			props[rp.Key] = v
		}
	}
	return props
}

func recordUnregistered(snap *Snapshot, src Source, product string) {
	key := strings.ToUpper(product)
	if _, seen := snap.Unregistered[key]; seen {
		return
	}
	if snap.Unregistered == nil {
		snap.Unregistered = make(map[string]map[string]string)
	}
	props := make(map[string]string)
	if name, ok := src.ProductProperty(product, PropertyProductName); ok {
		props[PropertyProductName] = name
	}
	snap.Unregistered[key] = props
}
