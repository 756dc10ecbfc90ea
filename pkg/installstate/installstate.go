// pkg/installstate/installstate.go - install state enumeration shared by products, features and components.

package installstate

import "fmt"

// InstallState mirrors the Windows Installer INSTALLSTATE encoding.
type InstallState int

const (
	NotUsed      InstallState = -7
	BadConfig    InstallState = -6
	Incomplete   InstallState = -5
	SourceAbsent InstallState = -4
	MoreData     InstallState = -3
	InvalidArg   InstallState = -2
	Unknown      InstallState = -1
	Broken       InstallState = 0
	Advertised   InstallState = 1
	Absent       InstallState = 2
	Local        InstallState = 3
	Source       InstallState = 4
	Default      InstallState = 5
)

type stateNames struct {
	state  InstallState
	short  string
	phrase string
}

// known lists the tallied states in report order. Anything else lands in the "other" bucket.
var known = []stateNames{
	{Unknown, "error", "error"},
	{NotUsed, "not used", "are not used"},
	{Advertised, "advertised", "are advertised"},
	{Absent, "absent", "are absent"},
	{Local, "local", "installed to run local"},
	{Source, "source", "installed to run from source"},
	{Default, "default", "installed for default"},
}

// KnownStates returns the tallied states in the order they are reported.
func KnownStates() []InstallState {
	out := make([]InstallState, len(known))
	for i, n := range known {
		out[i] = n.state
	}
	return out
}

func indexOf(s InstallState) int {
	for i, n := range known {
		if n.state == s {
			return i
		}
	}
	return -1
}

// IsKnown reports whether s is one of the tallied states.
func (s InstallState) IsKnown() bool {
	return indexOf(s) >= 0
}

// Short returns the terse name used next to a feature or component.
func (s InstallState) Short() string {
	if i := indexOf(s); i >= 0 {
		return known[i].short
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Phrase returns the summary wording, e.g. "installed to run local".
func (s InstallState) Phrase() string {
	if i := indexOf(s); i >= 0 {
		return known[i].phrase
	}
	return fmt.Sprintf("are in state %d", int(s))
}

func (s InstallState) String() string {
	return s.Short()
}

// ProductDescription describes a product-level state the way the product listing reports it.
func (s InstallState) ProductDescription() string {
	switch s {
	case Absent:
		return "The product is installed for a different user."
	case Advertised:
		return "The product is advertised, but not installed."
	case BadConfig:
		return "The configuration data is corrupt."
	case Default:
		return "Installed."
	case InvalidArg:
		return "An internal error has occurred."
	case Unknown:
		return "The product is neither advertised or installed."
	default:
		return fmt.Sprintf("Unexpected product state (%d).", int(s))
	}
}
