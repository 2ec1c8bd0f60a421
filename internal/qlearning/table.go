package qlearning

import (
	"fmt"
	"sort"

	"github.com/mitchelldurbincs/MatchThreeReinforcementLearning/internal/game"
)

// Table maps (state key, action) to an estimated value. Unseen pairs are
// worth 0. A Table has a single owner and is not safe for concurrent use;
// hand other goroutines a Snapshot instead.
type Table struct {
	values map[string]map[game.Action]float64
	pairs  int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string]map[game.Action]float64)}
}

// Get returns the value of (state, action), 0 if never set.
func (t *Table) Get(state string, a game.Action) float64 {
	return t.values[state][a]
}

// Set stores the value of (state, action).
func (t *Table) Set(state string, a game.Action, v float64) {
	row, ok := t.values[state]
	if !ok {
		row = make(map[game.Action]float64)
		t.values[state] = row
	}
	if _, seen := row[a]; !seen {
		t.pairs++
	}
	row[a] = v
}

// Len returns the number of stored (state, action) pairs.
func (t *Table) Len() int { return t.pairs }

// States returns the number of distinct state keys.
func (t *Table) States() int { return len(t.values) }

// Best returns the action with the highest value in state, scanning actions
// in order so ties go to the earliest one. decisive is false when every
// action has the same value, which includes a state never seen before.
func (t *Table) Best(state string, actions []game.Action) (best game.Action, value float64, decisive bool) {
	if len(actions) == 0 {
		return 0, 0, false
	}
	row := t.values[state]
	best, value = actions[0], row[actions[0]]
	for _, a := range actions[1:] {
		v := row[a]
		if v != value {
			decisive = true
		}
		if v > value {
			best, value = a, v
		}
	}
	return best, value, decisive
}

// MaxValue returns the highest value over actions in state.
func (t *Table) MaxValue(state string, actions []game.Action) float64 {
	_, v, _ := t.Best(state, actions)
	return v
}

// Entry is one (state, action, value) triple of a table snapshot. Actions
// are stored as their input tokens so snapshots survive reordering of the
// Action constants.
type Entry struct {
	State  string  `json:"state" parquet:"state_key,dict"`
	Action string  `json:"action" parquet:"action,dict"`
	Value  float64 `json:"value" parquet:"value"`
}

// Snapshot returns every pair as an ordered list, sorted by state key and
// then by action.
func (t *Table) Snapshot() []Entry {
	entries := make([]Entry, 0, t.pairs)
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		row := t.values[k]
		actions := make([]game.Action, 0, len(row))
		for a := range row {
			actions = append(actions, a)
		}
		sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
		for _, a := range actions {
			entries = append(entries, Entry{State: k, Action: a.String(), Value: row[a]})
		}
	}
	return entries
}

// TableFromEntries rebuilds a table from a snapshot.
func TableFromEntries(entries []Entry) (*Table, error) {
	t := NewTable()
	for i, e := range entries {
		a, err := game.ParseAction(e.Action)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		t.Set(e.State, a, e.Value)
	}
	return t, nil
}
