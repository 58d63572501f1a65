package postgrest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/season"
)

const (
	athletesTable  = "athletes"
	seasonsTable   = "_seasons"
	rosterFunction = "rpc/get_athletes_with_rosters"
)

// rosterRow is one answer row of get_athletes_with_rosters. Older rows carry
// the group as "team".
type rosterRow struct {
	athlete.Athlete
	Team string `json:"team"`
}

// RosterBySeasonAndGroup returns the athletes of group in season.
// PRE: season looks like 2024-25, group is non-empty
// POST: groups are normalised; the order is whatever the function returns
func (c *Client) RosterBySeasonAndGroup(ctx context.Context, seasonLabel, group string) ([]athlete.Athlete, error) {
	var rows []rosterRow
	err := c.do(ctx, request{
		method:   http.MethodPost,
		resource: rosterFunction,
		body: map[string]string{
			"paramseason": seasonLabel,
			"paramgroups": group,
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]athlete.Athlete, 0, len(rows))
	for _, r := range rows {
		a := r.Athlete
		if a.Groups == "" {
			a.Groups = r.Team
		}
		a.Normalize()
		out = append(out, a)
	}
	return out, nil
}

// seasonRow mirrors the _seasons table; dates arrive as YYYY-MM-DD.
type seasonRow struct {
	ID          int    `json:"seasonid"`
	Description string `json:"description"`
	Start       string `json:"seasonstart"`
	End         string `json:"seasonend"`
}

// ListSeasons returns all seasons, newest first.
func (c *Client) ListSeasons(ctx context.Context) ([]season.Season, error) {
	var rows []seasonRow
	err := c.do(ctx, request{
		method:   http.MethodGet,
		resource: seasonsTable,
		query: url.Values{
			"select": {"*"},
			"order":  {"seasonid.desc"},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]season.Season, 0, len(rows))
	for _, r := range rows {
		s := season.Season{ID: r.ID, Description: r.Description}
		s.Start, _ = parseDay(r.Start)
		s.End, _ = parseDay(r.End)
		out = append(out, s)
	}
	return out, nil
}

// parseDay accepts a date with or without a time part.
func parseDay(v string) (time.Time, error) {
	if len(v) > len(season.DateLayout) {
		v = v[:len(season.DateLayout)]
	}
	return time.Parse(season.DateLayout, v)
}

// UpdateAthlete overwrites the editable fields of an athlete.
// PRE: a validates
// POST: returns an error wrapping *APIError on rejection
func (c *Client) UpdateAthlete(ctx context.Context, a athlete.Athlete) error {
	return c.do(ctx, request{
		method:   http.MethodPatch,
		resource: athletesTable,
		query:    url.Values{"fincode": {eq(a.Fincode)}},
		body:     a,
		prefer:   []string{"return=minimal"},
	}, nil)
}

// DeleteAthlete removes an athlete by fincode.
func (c *Client) DeleteAthlete(ctx context.Context, fincode int) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		resource: athletesTable,
		query:    url.Values{"fincode": {eq(fincode)}},
	}, nil)
}

// CountAthletes returns the number of athletes. It doubles as a health probe.
func (c *Client) CountAthletes(ctx context.Context) (int, error) {
	u := *c.base
	u.Path += athletesTable
	u.RawQuery = "select=fincode&limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Prefer", "count=exact")

	start := time.Now()
	resp, err := c.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.logCall(request{method: http.MethodHead, resource: athletesTable}, status, start, err)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if status < 200 || status > 299 {
		return 0, &APIError{Status: status}
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

var errNoCount = errors.New("postgrest: response has no total count")

// parseContentRange reads the total from "0-0/42" or "*/0".
func parseContentRange(v string) (int, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 || v[i+1:] == "*" {
		return 0, errNoCount
	}
	return strconv.Atoi(v[i+1:])
}
