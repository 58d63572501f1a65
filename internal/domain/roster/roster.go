package roster

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"swimtrack/internal/domain/attendance"
)

// ErrDuplicateFincode is returned when two entries share a fincode.
var ErrDuplicateFincode = errors.New("roster contains duplicate fincode")

// Entry is one athlete line of the attendance screen.
type Entry struct {
	Fincode int               `json:"fincode"`
	Name    string            `json:"name"`
	Status  attendance.Status `json:"status"`
}

// Roster is an immutable, ordered list of entries with unique fincodes.
// Mutating operations return a new Roster and leave the receiver untouched,
// so a snapshot taken for a save can never change underneath it.
type Roster struct {
	entries []Entry
	index   map[int]int
}

// Empty is a roster with no entries.
var Empty = Roster{}

// New builds a roster ordered by name.
// PRE: none
// POST: entries sorted by name (locale-aware, case-sensitive), ties by fincode;
// empty statuses become N; duplicate fincodes yield ErrDuplicateFincode
func New(entries []Entry) (Roster, error) {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].Status = out[i].Status.Normalize()
	}

	// collate.Collator is not safe for concurrent use; one per call.
	c := collate.New(language.Und)
	slices.SortStableFunc(out, func(a, b Entry) int {
		if n := c.CompareString(a.Name, b.Name); n != 0 {
			return n
		}
		return a.Fincode - b.Fincode
	})

	index := make(map[int]int, len(out))
	for i, e := range out {
		if _, dup := index[e.Fincode]; dup {
			return Empty, fmt.Errorf("%w: %d", ErrDuplicateFincode, e.Fincode)
		}
		index[e.Fincode] = i
	}
	return Roster{entries: out, index: index}, nil
}

// Len returns the number of entries.
func (r Roster) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in display order.
func (r Roster) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Entry looks up an entry by fincode.
func (r Roster) Entry(fincode int) (Entry, bool) {
	i, ok := r.index[fincode]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Fincodes returns every fincode in display order.
func (r Roster) Fincodes() []int {
	out := make([]int, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Fincode
	}
	return out
}

// Cycle advances the status of one entry.
// PRE: none
// POST: returns a new roster where only the matching entry changed, and true;
// an unknown fincode returns the receiver unchanged and false
// INVARIANT: the receiver is never modified
func (r Roster) Cycle(fincode int) (Roster, bool) {
	i, ok := r.index[fincode]
	if !ok {
		return r, false
	}
	next := make([]Entry, len(r.entries))
	copy(next, r.entries)
	next[i].Status = next[i].Status.Next()
	// index depends only on fincodes and order, both unchanged
	return Roster{entries: next, index: r.index}, true
}
