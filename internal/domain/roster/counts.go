package roster

import "swimtrack/internal/domain/attendance"

// Counts tallies a roster by status. Derived on demand, never stored.
type Counts struct {
	P int `json:"present"`
	J int `json:"justified"`
	A int `json:"absent"`
	N int `json:"not_set"`
}

// Total returns the sum of all four buckets.
func (c Counts) Total() int {
	return c.P + c.J + c.A + c.N
}

// Counts tallies the roster.
// INVARIANT: result.Total() == r.Len()
func (r Roster) Counts() Counts {
	var c Counts
	for _, e := range r.entries {
		switch e.Status {
		case attendance.StatusPresent:
			c.P++
		case attendance.StatusJustified:
			c.J++
		case attendance.StatusAbsent:
			c.A++
		default:
			c.N++
		}
	}
	return c
}
