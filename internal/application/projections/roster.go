package projections

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/season"
)

// RosterReader defines the remote reads needed by the roster projection.
type RosterReader interface {
	ListSeasons(ctx context.Context) ([]season.Season, error)
	RosterBySeasonAndGroup(ctx context.Context, seasonLabel, group string) ([]athlete.Athlete, error)
}

// GetRosterQuery carries input for the roster projection.
type GetRosterQuery struct {
	Season string // empty selects the newest season
	Group  string // empty selects athlete.GroupAgonists
}

// GetRosterResult carries the output of the roster projection.
type GetRosterResult struct {
	Seasons  []season.Season   `json:"seasons"`
	Season   string            `json:"season"`
	Group    string            `json:"group"`
	Groups   []string          `json:"groups"`
	Athletes []athlete.Athlete `json:"athletes"`
}

// GetRosterDeps holds dependencies for the roster projection.
type GetRosterDeps struct {
	Athletes RosterReader
}

// QueryGetRoster lists the season choices and the athletes of one season and group.
// PRE: Group, when set, is a known group
// POST: Athletes are sorted by name with locale-aware collation
func QueryGetRoster(ctx context.Context, query GetRosterQuery, deps GetRosterDeps) (GetRosterResult, error) {
	group := athlete.NormalizeGroup(query.Group)
	if group == "" {
		group = athlete.GroupAgonists
	}
	if !athlete.KnownGroup(group) {
		return GetRosterResult{}, athlete.ErrUnknownGroup
	}

	seasons, err := deps.Athletes.ListSeasons(ctx)
	if err != nil {
		return GetRosterResult{}, fmt.Errorf("list seasons: %w", err)
	}

	label := strings.TrimSpace(query.Season)
	if label == "" {
		if len(seasons) == 0 {
			return GetRosterResult{Seasons: seasons, Group: group, Groups: athlete.Groups, Athletes: []athlete.Athlete{}}, nil
		}
		label = seasons[0].Description
	}

	athletes, err := deps.Athletes.RosterBySeasonAndGroup(ctx, label, group)
	if err != nil {
		return GetRosterResult{}, fmt.Errorf("load roster: %w", err)
	}
	if athletes == nil {
		athletes = []athlete.Athlete{}
	}
	sortAthletes(athletes)

	return GetRosterResult{
		Seasons:  seasons,
		Season:   label,
		Group:    group,
		Groups:   athlete.Groups,
		Athletes: athletes,
	}, nil
}

func sortAthletes(list []athlete.Athlete) {
	c := collate.New(language.Und)
	sort.SliceStable(list, func(i, j int) bool {
		if cmp := c.CompareString(list[i].Name, list[j].Name); cmp != 0 {
			return cmp < 0
		}
		return list[i].Fincode < list[j].Fincode
	})
}
