package athlete

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Training groups of the club.
const (
	GroupAgonists   = "ASS"
	GroupJuniorA    = "EA"
	GroupJuniorB    = "EB"
	GroupPropaganda = "PROP"
)

// Groups lists every training group in display order.
var Groups = []string{GroupAgonists, GroupJuniorA, GroupJuniorB, GroupPropaganda}

// UnnamedAthlete is shown for remote rows without a name.
const UnnamedAthlete = "Unnamed Athlete"

// Domain errors
var (
	ErrInvalidFincode = errors.New("athlete fincode must be positive")
	ErrEmptyName      = errors.New("athlete name cannot be empty")
	ErrNameTooLong    = errors.New("athlete name cannot exceed 100 characters")
	ErrInvalidEmail   = errors.New("athlete email must be valid")
	ErrUnknownGroup   = errors.New("athlete group must be one of ASS, EA, EB, PROP")
)

// Athlete is a registered club member identified by the federation fincode.
type Athlete struct {
	Fincode   int    `json:"fincode"`
	Name      string `json:"name"`
	Groups    string `json:"groups,omitempty"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birthdate,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Active    *bool  `json:"active,omitempty"`
}

// NormalizeGroup trims and upper-cases a group code.
func NormalizeGroup(g string) string {
	return strings.ToUpper(strings.TrimSpace(g))
}

// KnownGroup reports whether g is one of the club groups.
func KnownGroup(g string) bool {
	g = NormalizeGroup(g)
	for _, known := range Groups {
		if g == known {
			return true
		}
	}
	return false
}

// Normalize cleans fields read from the remote store.
// POST: Groups is trimmed and upper-case; empty names become UnnamedAthlete
func (a *Athlete) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		a.Name = UnnamedAthlete
	}
	a.Groups = NormalizeGroup(a.Groups)
	a.Email = strings.TrimSpace(a.Email)
}

// Validate checks if the Athlete has valid data.
// PRE: Athlete struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email, when set, must contain '@'
func (a *Athlete) Validate() error {
	if a.Fincode <= 0 {
		return ErrInvalidFincode
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if a.Groups != "" && !KnownGroup(a.Groups) {
		return ErrUnknownGroup
	}
	return nil
}

// IsActive treats a missing flag as active.
// INVARIANT: Active field is not mutated
func (a *Athlete) IsActive() bool {
	return a.Active == nil || *a.Active
}
