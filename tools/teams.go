package tools

import (
	"context"
	"fmt"

	"github.com/dparolin/dommyhoops/query"
)

// teamOverview returns the season statistics row for one team.
func (c *catalog) teamOverview(ctx context.Context, args Args) (any, error) {
	team := args.String("team")
	seasonYear := season(args)

	rows, err := c.fetchTeamSeason(ctx, team, seasonYear)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no season stats for team %q in %d", team, seasonYear)), nil
	}
	return map[string]any{
		"found":  true,
		"season": seasonYear,
		"team":   rows[0],
	}, nil
}

// teamRoster returns all players on one team's roster.
func (c *catalog) teamRoster(ctx context.Context, args Args) (any, error) {
	team := args.String("team")
	seasonYear := season(args)

	stmt := fmt.Sprintf(
		"SELECT name, position, height, weight, jersey, hometown FROM %s WHERE lower(team) = lower(?) ORDER BY name",
		seasonTable("roster_flat", seasonYear),
	)
	rows, err := c.cache.GetOrCompute(ctx, stmt, []any{team}, seasonTTL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no roster for team %q in %d", team, seasonYear)), nil
	}
	return map[string]any{
		"found":   true,
		"season":  seasonYear,
		"team":    team,
		"players": rows,
	}, nil
}

// teamSchedule returns every game a team appears in, chronologically.
func (c *catalog) teamSchedule(ctx context.Context, args Args) (any, error) {
	team := args.String("team")
	seasonYear := season(args)

	stmt := fmt.Sprintf(
		"SELECT start_date, home_team, home_points, away_team, away_points, neutral_site, conference_game FROM %s WHERE lower(home_team) = lower(?) OR lower(away_team) = lower(?) ORDER BY start_date",
		seasonTable("games_flat", seasonYear),
	)
	rows, err := c.cache.GetOrCompute(ctx, stmt, []any{team, team}, scheduleTTL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no games for team %q in %d", team, seasonYear)), nil
	}
	return map[string]any{
		"found":  true,
		"season": seasonYear,
		"team":   team,
		"games":  rows,
	}, nil
}

// compareTeams returns both teams' season rows side by side. A team with no
// row comes back as a not-found marker rather than failing the comparison.
func (c *catalog) compareTeams(ctx context.Context, args Args) (any, error) {
	seasonYear := season(args)

	sides := map[string]any{}
	for argName, key := range map[string]string{"team_a": "a", "team_b": "b"} {
		team := args.String(argName)
		rows, err := c.fetchTeamSeason(ctx, team, seasonYear)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			sides[key] = NotFound(fmt.Sprintf("no season stats for team %q in %d", team, seasonYear))
		} else {
			sides[key] = rows[0]
		}
	}
	return map[string]any{
		"season": seasonYear,
		"a":      sides["a"],
		"b":      sides["b"],
	}, nil
}

// standings ranks a conference's teams by net rating.
func (c *catalog) standings(ctx context.Context, args Args) (any, error) {
	conference := args.String("conference")
	seasonYear := season(args)

	stmt := fmt.Sprintf(
		"SELECT team, conference, games, pace, offense_rating, defense_rating, net_rating FROM %s WHERE lower(conference) = lower(?) ORDER BY net_rating DESC",
		seasonTable("team_stats_season_flat", seasonYear),
	)
	rows, err := c.cache.GetOrCompute(ctx, stmt, []any{conference}, seasonTTL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no teams for conference %q in %d", conference, seasonYear)), nil
	}
	return map[string]any{
		"found":      true,
		"season":     seasonYear,
		"conference": conference,
		"teams":      rows,
	}, nil
}

func (c *catalog) fetchTeamSeason(ctx context.Context, team string, seasonYear int) ([]query.Record, error) {
	stmt := fmt.Sprintf(
		"SELECT * FROM %s WHERE lower(team) = lower(?) LIMIT 1",
		seasonTable("team_stats_season_flat", seasonYear),
	)
	return c.cache.GetOrCompute(ctx, stmt, []any{team}, seasonTTL)
}
