package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 4000
)

// Session types
const (
	TypeSwim = "Swim"
	TypeGym  = "Gym"
)

// Defaults applied to a new session.
const (
	DefaultStartTime  = "18:00"
	DefaultEndTime    = "20:00"
	DefaultType       = TypeSwim
	DefaultLocation   = "Bolzano"
	DefaultPoolName   = "Maso della Pieve"
	DefaultPoolLength = 25
	DefaultGroup      = "ASS"
)

// DateLayout is the calendar date format of Session.Date.
const DateLayout = "2006-01-02"

const timeLayout = "15:04"

// Domain errors
var (
	ErrEmptyTitle      = errors.New("session title cannot be empty")
	ErrTitleTooLong    = errors.New("session title cannot exceed 120 characters")
	ErrInvalidDate     = errors.New("session date must be YYYY-MM-DD")
	ErrInvalidTime     = errors.New("session times must be hh:mm")
	ErrInvalidType     = errors.New("session type must be 'Swim' or 'Gym'")
	ErrEmptyGroups     = errors.New("session must target a group")
	ErrNegativeVolume  = errors.New("session volume cannot be negative")
	ErrInvalidPool     = errors.New("pool length must be 25 or 50 for swim sessions")
	ErrDescriptionSize = errors.New("session description cannot exceed 4000 characters")
)

// Session is a scheduled training, stored remotely in the sessions table.
type Session struct {
	ID          int    `json:"session_id,omitempty"`
	Title       string `json:"title"`
	Date        string `json:"date"`      // YYYY-MM-DD
	StartTime   string `json:"starttime"` // hh:mm
	EndTime     string `json:"endtime"`   // hh:mm
	Type        string `json:"type"`
	Description string `json:"description"`
	Volume      int    `json:"volume"` // metres
	Location    string `json:"location"`
	PoolName    string `json:"poolname"`
	PoolLength  int    `json:"poollength"`
	Groups      string `json:"groups"`
}

// New returns a session on date with the club defaults filled in.
func New(date string) Session {
	return Session{
		Date:       date,
		StartTime:  DefaultStartTime,
		EndTime:    DefaultEndTime,
		Type:       DefaultType,
		Location:   DefaultLocation,
		PoolName:   DefaultPoolName,
		PoolLength: DefaultPoolLength,
		Groups:     DefaultGroup,
	}
}

// Normalize trims fields, cuts times to hh:mm and fills empty fields with defaults.
// POST: StartTime and EndTime have at most five characters; Groups is upper-case
func (s *Session) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Date = strings.TrimSpace(s.Date)
	s.StartTime = clipTime(s.StartTime, DefaultStartTime)
	s.EndTime = clipTime(s.EndTime, DefaultEndTime)
	if strings.TrimSpace(s.Type) == "" {
		s.Type = DefaultType
	}
	if strings.TrimSpace(s.Location) == "" {
		s.Location = DefaultLocation
	}
	s.Groups = strings.ToUpper(strings.TrimSpace(s.Groups))
	if s.Groups == "" {
		s.Groups = DefaultGroup
	}
	if s.Type == TypeGym {
		// pool fields are meaningless for dry-land sessions
		s.Volume = 0
		s.PoolName = ""
		s.PoolLength = 0
		return
	}
	if s.PoolLength == 0 {
		s.PoolLength = DefaultPoolLength
	}
}

// clipTime keeps the hh:mm prefix of values such as "18:00:00".
func clipTime(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	if len(v) > 5 {
		return v[:5]
	}
	return v
}

// Validate checks if the Session has valid data.
// PRE: Normalize has been called
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if s.Title == "" {
		return ErrEmptyTitle
	}
	if len(s.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(s.Description) > MaxDescriptionLength {
		return ErrDescriptionSize
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return ErrInvalidDate
	}
	if _, err := time.Parse(timeLayout, s.StartTime); err != nil {
		return ErrInvalidTime
	}
	if _, err := time.Parse(timeLayout, s.EndTime); err != nil {
		return ErrInvalidTime
	}
	if s.Type != TypeSwim && s.Type != TypeGym {
		return ErrInvalidType
	}
	if s.Groups == "" {
		return ErrEmptyGroups
	}
	if s.Volume < 0 {
		return ErrNegativeVolume
	}
	if s.Type == TypeSwim && s.PoolLength != 25 && s.PoolLength != 50 {
		return ErrInvalidPool
	}
	return nil
}

// Day parses the session date.
func (s *Session) Day() (time.Time, error) {
	t, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s.Date)
	}
	return t, nil
}

// DurationHours returns the session duration in hours.
// PRE: StartTime and EndTime are in hh:mm format
// POST: Returns duration as float64 hours, or error if times can't be parsed
func (s *Session) DurationHours() (float64, error) {
	start, err := time.Parse(timeLayout, s.StartTime)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", s.StartTime, err)
	}
	end, err := time.Parse(timeLayout, s.EndTime)
	if err != nil {
		return 0, fmt.Errorf("invalid end time %q: %w", s.EndTime, err)
	}
	dur := end.Sub(start)
	if dur <= 0 {
		dur += 24 * time.Hour
	}
	return dur.Hours(), nil
}

// HasGroup reports whether the session targets group. Groups may hold a
// comma-separated list.
func (s *Session) HasGroup(group string) bool {
	group = strings.ToUpper(strings.TrimSpace(group))
	for _, g := range strings.Split(s.Groups, ",") {
		if strings.TrimSpace(g) == group {
			return true
		}
	}
	return false
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
