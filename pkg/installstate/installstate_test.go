package installstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnownStatesOrder(t *testing.T) {
	require.Equal(t,
		[]InstallState{Unknown, NotUsed, Advertised, Absent, Local, Source, Default},
		KnownStates())
}

func TestNames(t *testing.T) {
	tests := []struct {
		state  InstallState
		short  string
		phrase string
		known  bool
	}{
		{Unknown, "error", "error", true},
		{Local, "local", "installed to run local", true},
		{Source, "source", "installed to run from source", true},
		{Default, "default", "installed for default", true},
		{Broken, "state(0)", "are in state 0", false},
		{InstallState(42), "state(42)", "are in state 42", false},
	}
	for _, tt := range tests {
		t.Run(tt.short, func(t *testing.T) {
			require.Equal(t, tt.short, tt.state.Short())
			require.Equal(t, tt.phrase, tt.state.Phrase())
			require.Equal(t, tt.known, tt.state.IsKnown())
		})
	}
}

func TestProductDescription(t *testing.T) {
	require.Equal(t, "Installed.", Default.ProductDescription())
	require.Equal(t, "The product is advertised, but not installed.", Advertised.ProductDescription())
	require.Equal(t, "Unexpected product state (7).", InstallState(7).ProductDescription())
}

func TestTallyAccountsForEveryValue(t *testing.T) {
	var tally Tally
	states := []InstallState{Local, Local, Absent, Unknown, Broken, MoreData, InstallState(99), Default}
	for _, s := range states {
		tally.Add(s)
	}

	require.Equal(t, len(states), tally.Total())
	require.Equal(t, 2, tally.Count(Local))
	require.Equal(t, 1, tally.Count(Unknown))
	require.Equal(t, 3, tally.Other())
	require.Zero(t, tally.Count(Broken), "states outside the known set only show up in Other")

	sum := tally.Other()
	for _, s := range KnownStates() {
		sum += tally.Count(s)
	}
	require.Equal(t, tally.Total(), sum)
}

func TestTallyMarshal(t *testing.T) {
	var tally Tally
	tally.Add(Local)
	tally.Add(InstallState(12))

	data, err := json.Marshal(tally)
	require.NoError(t, err)

	var m map[string]int
	require.NoError(t, json.Unmarshal(data, &m))
	require.Equal(t, 1, m["local"])
	require.Equal(t, 1, m["other"])
	require.Equal(t, 2, m["total"])
	require.Equal(t, 0, m["error"])
}
