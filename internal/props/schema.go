package props

import "github.com/ServerwaveHost/wave-server-bundler/internal/models"

// GenericBase is the oldest server.properties key set the wiki documents
// (version 1.2). Every later schema is derived from it by replaying the
// VersionHistory diffs.
func GenericBase() Profile {
	return Profile{
		"allow-flight":        false,
		"allow-nether":        true,
		"difficulty":          1,
		"enable-query":        false,
		"enable-rcon":         false,
		"gamemode":            0,
		"generate-structures": true,
		"level-name":          "world",
		"level-seed":          "",
		"level-type":          "DEFAULT",
		"max-players":         20,
		"motd":                "A Minecraft Server",
		"online-mode":         true,
		"op-permission-level": 4,
		"pvp":                 true,
		"resource-pack":       "",
		"server-ip":           "",
		"server-port":         25565,
		"spawn-animals":       true,
		"spawn-monsters":      true,
		"spawn-npcs":          true,
		"view-distance":       10,
		"white-list":          false,
	}
}

// VersionHistory is the ordered change log of the server.properties schema.
// Each entry overrides the accumulated map: additions win on key collision,
// removals delete. Stored in insertion order; Synthesize scans for the
// maximal applicable entry instead of trusting the order.
var VersionHistory = []models.VersionDiff{
	{
		Version:   "1.2.1",
		Additions: map[string]any{"max-build-height": 256},
	},
	{
		Version:   "1.3.1",
		Additions: map[string]any{"snooper-enabled": true},
	},
	{
		Version:   "1.4.2",
		Additions: map[string]any{"spawn-protection": 16, "enable-command-block": false},
	},
	{
		Version: "1.8",
		Additions: map[string]any{
			"generator-settings":            "",
			"network-compression-threshold": 256,
			"max-tick-time":                 60000,
		},
	},
	{
		Version:   "1.11",
		Additions: map[string]any{"prevent-proxy-connections": false},
	},
	{
		Version:   "1.12",
		Additions: map[string]any{"enforce-whitelist": false},
		Removals:  []string{"announce-player-achievements"},
	},
	{
		Version: "1.14",
		Additions: map[string]any{
			"difficulty":                "easy",
			"gamemode":                  "survival",
			"function-permission-level": 2,
			"broadcast-rcon-to-ops":     true,
			"broadcast-console-to-ops":  true,
		},
		Notes: "Difficulty and Gamemode switched from integers to strings.",
	},
	{
		Version:   "1.15",
		Additions: map[string]any{"enable-status": true, "sync-chunk-writes": true},
	},
	{
		Version: "1.16",
		Additions: map[string]any{
			"entity-broadcast-range-percentage": 100,
			"enable-jmx-monitoring":             false,
			"text-filtering-config":             "",
		},
	},
	{
		Version:   "1.17",
		Additions: map[string]any{"require-resource-pack": false, "resource-pack-prompt": ""},
		Removals:  []string{"max-build-height"},
	},
	{
		Version:   "1.18",
		Additions: map[string]any{"simulation-distance": 10, "hide-online-players": false},
		Removals:  []string{"snooper-enabled"},
	},
	{
		Version: "1.19",
		Additions: map[string]any{
			"enforce-secure-profile":        true,
			"max-chained-neighbor-updates":  1000000,
		},
	},
	{
		Version:   "1.20",
		Additions: map[string]any{"log-ips": true, "resource-pack-id": ""},
		Notes:     "File encoding switched to UTF-8 natively.",
	},
	{
		Version:   "1.21.2",
		Additions: map[string]any{"pause-when-empty-seconds": 60},
		Removals:  []string{"spawn-animals", "spawn-npcs"},
	},
	{
		Version: "1.21.9",
		Additions: map[string]any{
			"management-server-enabled": false,
			"management-server-host":    "localhost",
			"management-server-port":    0,
			"management-server-secret":  "",
			"enable-code-of-conduct":    false,
			"bug-report-link":           "",
		},
		Removals: []string{"allow-nether", "enable-command-block", "pvp", "spawn-monsters"},
		Notes:    "Major management overhaul and cleanup of legacy toggles.",
	},
}
