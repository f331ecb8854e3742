package tools

import (
	"fmt"
	"time"

	"github.com/dparolin/dommyhoops/cache"
)

// CurrentSeason is the season assumed when a caller omits one. The dataset
// is refreshed out-of-band; bump this alongside the ingestion scripts.
const CurrentSeason = 2025

// Per-handler staleness budgets. Season aggregates change only when the
// ingestion scripts rerun; schedules and game logs are livelier.
const (
	seasonTTL   = 15 * time.Minute
	scheduleTTL = 5 * time.Minute
	searchTTL   = 10 * time.Minute
)

// catalog owns the query handlers. Every read goes through the result cache.
type catalog struct {
	cache *cache.Cache
}

// NewCatalog builds the fixed tool registry served to the completion
// service. Loaded once at process start and shared read-only afterwards.
func NewCatalog(c *cache.Cache) (*Registry, error) {
	cat := &catalog{cache: c}
	registry := NewRegistry()

	seasonProp := map[string]any{
		"type":        "integer",
		"description": fmt.Sprintf("Season year, e.g. %d. Defaults to the current season.", CurrentSeason),
		"minimum":     2003,
		"maximum":     2030,
	}

	entries := []struct {
		spec    Spec
		handler Handler
	}{
		{
			Spec{
				Name:        "team_overview",
				Description: "Season-level statistics for one team: pace, ratings, scoring and shooting splits.",
				Parameters: objectSchema(map[string]any{
					"team":   stringProp("Team name, e.g. \"Boise State\"."),
					"season": seasonProp,
				}, "team"),
			},
			cat.teamOverview,
		},
		{
			Spec{
				Name:        "team_roster",
				Description: "The roster for one team: player names, positions, measurements and hometowns.",
				Parameters: objectSchema(map[string]any{
					"team":   stringProp("Team name."),
					"season": seasonProp,
				}, "team"),
			},
			cat.teamRoster,
		},
		{
			Spec{
				Name:        "team_schedule",
				Description: "All games for one team in a season with dates, opponents and final scores.",
				Parameters: objectSchema(map[string]any{
					"team":   stringProp("Team name."),
					"season": seasonProp,
				}, "team"),
			},
			cat.teamSchedule,
		},
		{
			Spec{
				Name:        "compare_teams",
				Description: "Side-by-side season statistics for two teams.",
				Parameters: objectSchema(map[string]any{
					"team_a": stringProp("First team name."),
					"team_b": stringProp("Second team name."),
					"season": seasonProp,
				}, "team_a", "team_b"),
			},
			cat.compareTeams,
		},
		{
			Spec{
				Name:        "standings",
				Description: "Conference standings ordered by net rating.",
				Parameters: objectSchema(map[string]any{
					"conference": stringProp("Conference abbreviation, e.g. \"MWC\"."),
					"season":     seasonProp,
				}, "conference"),
			},
			cat.standings,
		},
		{
			Spec{
				Name:        "player_season_stats",
				Description: "Full season statistics line for one player.",
				Parameters: objectSchema(map[string]any{
					"player": stringProp("Player name, exact or close match."),
					"season": seasonProp,
				}, "player"),
			},
			cat.playerSeasonStats,
		},
		{
			Spec{
				Name:        "player_search",
				Description: "Find players by partial name; returns name, team and position.",
				Parameters: objectSchema(map[string]any{
					"query":  stringProp("Partial player name to search for."),
					"season": seasonProp,
				}, "query"),
			},
			cat.playerSearch,
		},
		{
			Spec{
				Name:        "stat_leaderboard",
				Description: "Top players in a season by one statistic (points, rebounds, assists, steals, blocks, minutes or usage).",
				Parameters: objectSchema(map[string]any{
					"stat": map[string]any{
						"type":        "string",
						"description": "Statistic to rank by.",
						"enum":        leaderboardStatNames(),
					},
					"season": seasonProp,
					"limit": map[string]any{
						"type":        "integer",
						"description": "Number of players to return, 1-50. Defaults to 10.",
						"minimum":     1,
						"maximum":     50,
					},
				}, "stat"),
			},
			cat.statLeaderboard,
		},
		{
			Spec{
				Name:        "player_game_log",
				Description: "Recent per-game lines for one player.",
				Parameters: objectSchema(map[string]any{
					"player": stringProp("Player name."),
					"season": seasonProp,
					"limit": map[string]any{
						"type":        "integer",
						"description": "Number of games to return, 1-40. Defaults to 10.",
						"minimum":     1,
						"maximum":     40,
					},
				}, "player"),
			},
			cat.playerGameLog,
		},
	}

	for _, e := range entries {
		if err := registry.Register(e.spec, e.handler); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// season returns the validated season argument or the current season.
func season(args Args) int {
	return args.IntOr("season", CurrentSeason)
}

// seasonTable builds a per-season table name. The season has already passed
// integer schema validation, so formatting it cannot inject into the
// statement text.
func seasonTable(base string, seasonYear int) string {
	return fmt.Sprintf("%s_%d", base, seasonYear)
}
