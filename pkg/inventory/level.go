package inventory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputLevel selects what a run computes and prints. Some flags only gate printing:
// FeatureList, ComponentList, OrphanedComponents and SharedComponents never change a
// count, with the single exception of the qualified component counter, which only
// moves while components are listed.
type OutputLevel uint32

const (
	Products OutputLevel = 1 << iota
	FeatureStates
	FeatureList
	ComponentCount
	ComponentList
	OrphanedComponents
	SharedComponents
	TimeElapsed
	UserInfo
	LoggingInfo

	None OutputLevel = 0

	ComponentEvaluation = OrphanedComponents | SharedComponents
	Modifiers           = TimeElapsed

	all     = LoggingInfo<<1 - 1
	Verbose = all &^ TimeElapsed
	Normal  = Verbose &^ (ComponentList | FeatureList | TimeElapsed | ComponentEvaluation | LoggingInfo)
	Reduced = Products | FeatureStates
)

var levelNames = []struct {
	flag OutputLevel
	name string
}{
	{Products, "products"},
	{FeatureStates, "feature-states"},
	{FeatureList, "feature-list"},
	{ComponentCount, "component-count"},
	{ComponentList, "component-list"},
	{OrphanedComponents, "orphaned"},
	{SharedComponents, "shared"},
	{TimeElapsed, "time"},
	{UserInfo, "user-info"},
	{LoggingInfo, "logs"},
}

// Has reports whether every flag in f is set.
func (l OutputLevel) Has(f OutputLevel) bool {
	return l&f == f
}

// Any reports whether at least one flag in f is set.
func (l OutputLevel) Any(f OutputLevel) bool {
	return l&f != 0
}

// WithDefault returns l, or l plus Normal when nothing but modifiers was requested.
func (l OutputLevel) WithDefault() OutputLevel {
	if l&^Modifiers == None {
		return l | Normal
	}
	return l
}

// Names lists the set flags.
func (l OutputLevel) Names() []string {
	var names []string
	for _, n := range levelNames {
		if l.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

func (l OutputLevel) String() string {
	if l == None {
		return "none"
	}
	return strings.Join(l.Names(), ",")
}

// MarshalYAML writes the level as a list of flag names.
func (l OutputLevel) MarshalYAML() (interface{}, error) {
	return l.Names(), nil
}

// MarshalJSON writes the level as a list of flag names.
func (l OutputLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Names())
}

// ParseLevel maps a configured level name to its composite value.
func ParseLevel(name string) (OutputLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal":
		return Normal, nil
	case "reduced":
		return Reduced, nil
	case "verbose":
		return Verbose, nil
	}
	for _, n := range levelNames {
		if strings.EqualFold(name, n.name) {
			return n.flag, nil
		}
	}
	return None, fmt.Errorf("unknown output level %q", name)
}
