package installstate

import "encoding/json"

// Tally counts install states. Values outside KnownStates are kept in Other so that the
// per-state counts plus Other always add up to Total.
type Tally struct {
	counts [7]int
	other  int
	total  int
}

// Add records one state.
func (t *Tally) Add(s InstallState) {
	t.total++
	if i := indexOf(s); i >= 0 {
		t.counts[i]++
		return
	}
	t.other++
}

// Count returns the number of recorded values equal to s. For states outside the
// known set it returns 0; those are only visible through Other.
func (t Tally) Count(s InstallState) int {
	if i := indexOf(s); i >= 0 {
		return t.counts[i]
	}
	return 0
}

// Other returns how many recorded values were outside the known states.
func (t Tally) Other() int { return t.other }

// Total returns how many values were recorded.
func (t Tally) Total() int { return t.total }

// Counts returns the per-state counts keyed by short name, plus "other".
func (t Tally) Counts() map[string]int {
	out := make(map[string]int, len(known)+1)
	for i, n := range known {
		out[n.short] = t.counts[i]
	}
	out["other"] = t.other
	return out
}

// MarshalYAML renders the tally as a flat map.
func (t Tally) MarshalYAML() (interface{}, error) {
	m := t.Counts()
	m["total"] = t.total
	return m, nil
}

// MarshalJSON renders the tally as a flat map.
func (t Tally) MarshalJSON() ([]byte, error) {
	m := t.Counts()
	m["total"] = t.total
	return json.Marshal(m)
}
