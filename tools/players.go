package tools

import (
	"context"
	"fmt"
	"sort"
)

// leaderboardStats whitelists the rankable columns. Model input selects a
// key here; only the mapped column name ever reaches statement text.
var leaderboardStats = map[string]string{
	"points":   "points",
	"rebounds": "rebounds",
	"assists":  "assists",
	"steals":   "steals",
	"blocks":   "blocks",
	"minutes":  "minutes",
	"usage":    "usage",
}

func leaderboardStatNames() []string {
	names := make([]string, 0, len(leaderboardStats))
	for name := range leaderboardStats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// playerSeasonStats returns the full season line for one player.
func (c *catalog) playerSeasonStats(ctx context.Context, args Args) (any, error) {
	player := args.String("player")
	seasonYear := season(args)

	stmt := fmt.Sprintf(
		"SELECT * FROM %s WHERE lower(name) = lower(?) LIMIT 5",
		seasonTable("player_stats_season_flat", seasonYear),
	)
	rows, err := c.cache.GetOrCompute(ctx, stmt, []any{player}, seasonTTL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no season stats for player %q in %d", player, seasonYear)), nil
	}
	// Transfers can produce one row per team in the same season.
	return map[string]any{
		"found":  true,
		"season": seasonYear,
		"lines":  rows,
	}, nil
}

// playerSearch finds players by partial name.
func (c *catalog) playerSearch(ctx context.Context, args Args) (any, error) {
	q := args.String("query")
	seasonYear := season(args)

	stmt := fmt.Sprintf(
		"SELECT name, team, conference, position FROM %s WHERE name ILIKE '%%' || ? || '%%' ORDER BY name LIMIT 25",
		seasonTable("player_stats_season_flat", seasonYear),
	)
	rows, err := c.cache.GetOrCompute(ctx, stmt, []any{q}, searchTTL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no players matching %q in %d", q, seasonYear)), nil
	}
	return map[string]any{
		"found":   true,
		"season":  seasonYear,
		"players": rows,
	}, nil
}

// statLeaderboard ranks players by one whitelisted statistic.
func (c *catalog) statLeaderboard(ctx context.Context, args Args) (any, error) {
	stat := args.String("stat")
	seasonYear := season(args)
	limit := args.IntOr("limit", 10)

	column, ok := leaderboardStats[stat]
	if !ok {
		// The schema enum already rejects this; kept as a defense against
		// schema drift since the column is interpolated.
		return nil, fmt.Errorf("unsupported stat %q", stat)
	}

	stmt := fmt.Sprintf(
		"SELECT name, team, conference, games, %s FROM %s WHERE %s IS NOT NULL ORDER BY %s DESC LIMIT ?",
		column, seasonTable("player_stats_season_flat", seasonYear), column, column,
	)
	rows, err := c.cache.GetOrCompute(ctx, stmt, []any{limit}, seasonTTL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no %s leaderboard for %d", stat, seasonYear)), nil
	}
	return map[string]any{
		"found":   true,
		"season":  seasonYear,
		"stat":    stat,
		"leaders": rows,
	}, nil
}

// playerGameLog returns recent per-game lines for one player. The per-game
// table is not part of the confirmed schema; when it is absent the engine
// error surfaces as a structured tool error and the request continues.
func (c *catalog) playerGameLog(ctx context.Context, args Args) (any, error) {
	player := args.String("player")
	seasonYear := season(args)
	limit := args.IntOr("limit", 10)

	stmt := fmt.Sprintf(
		"SELECT start_date, opponent, minutes, points, rebounds, assists, steals, blocks FROM %s WHERE lower(name) = lower(?) ORDER BY start_date DESC LIMIT ?",
		seasonTable("player_stats_game_flat", seasonYear),
	)
	rows, err := c.cache.GetOrCompute(ctx, stmt, []any{player, limit}, scheduleTTL)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NotFound(fmt.Sprintf("no game log for player %q in %d", player, seasonYear)), nil
	}
	return map[string]any{
		"found":  true,
		"season": seasonYear,
		"player": player,
		"games":  rows,
	}, nil
}
