// Package gamerule computes the live gamerule set for a target game version
// from a parsed change history, and generates the override datapack.
//
// The history itself comes from an external, best-effort source (the wiki
// scraper); this package only replays events and attaches metadata, so its
// contract stays independent of the scraper's heuristics.
package gamerule

import (
	"sort"
	"strings"

	"github.com/ServerwaveHost/wave-server-bundler/internal/mcversion"
	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// Resolve replays every event with version <= target in ascending version
// order and returns metadata for each rule left active. Events may arrive in
// any order; the replay sorts them (stably) first.
//
// Rules the metadata map does not know are run through a fuzzy recovery step
// (see recoverMetadata); when that also fails a stub record marked unknown is
// synthesized so the caller always gets one entry per active rule.
func Resolve(events []models.GameRuleEvent, metadata map[string]models.GameRuleMetadata, target string) []models.GameRuleMetadata {
	ordered := make([]models.GameRuleEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return mcversion.CompareStrings(ordered[i].Version, ordered[j].Version) < 0
	})

	targetTuple := mcversion.Parse(target)
	active := map[string]bool{}
	for _, event := range ordered {
		if mcversion.Compare(mcversion.Parse(event.Version), targetTuple) > 0 {
			continue
		}
		switch event.Action {
		case models.RuleAdd:
			active[event.RuleName] = true
		case models.RuleRemove:
			delete(active, event.RuleName)
		case models.RuleRename:
			if event.OldName != "" {
				delete(active, event.OldName)
			}
			active[event.RuleName] = true
		}
	}

	names := make([]string, 0, len(active))
	for name := range active {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make([]models.GameRuleMetadata, 0, len(names))
	for _, name := range names {
		if meta, ok := metadata[name]; ok {
			rules = append(rules, meta)
			continue
		}
		if meta, ok := recoverMetadata(name, events, metadata, target); ok {
			rules = append(rules, meta)
			continue
		}
		rules = append(rules, models.GameRuleMetadata{
			Name:         name,
			Description:  "No description",
			DefaultValue: "unknown",
			Type:         "unknown",
		})
	}
	return rules
}

// recoverMetadata fuzzy-matches a rule name against the metadata keys.
//
// The change history is not reliable about casing: some versions rename rules
// to snake_case without the metadata table following suit. When any rename
// involving an underscored name happened strictly before the target version
// the match is done on snake_cased forms, otherwise on camelCased forms. A
// match is an exact or substring hit in either direction; first match wins.
// None of this is guaranteed correct, which is why it lives in one place.
func recoverMetadata(name string, events []models.GameRuleEvent, metadata map[string]models.GameRuleMetadata, target string) (models.GameRuleMetadata, bool) {
	targetTuple := mcversion.Parse(target)
	useSnake := false
	for _, event := range events {
		if event.Action != models.RuleRename {
			continue
		}
		if !strings.Contains(event.RuleName, "_") && !strings.Contains(event.OldName, "_") {
			continue
		}
		if mcversion.Compare(mcversion.Parse(event.Version), targetTuple) < 0 {
			useSnake = true
			break
		}
	}

	normalize := toCamel
	if useSnake {
		normalize = toSnake
	}

	normalized := normalize(name)
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		candidate := normalize(key)
		if normalized == candidate || strings.Contains(normalized, candidate) || strings.Contains(candidate, normalized) {
			meta := metadata[key]
			if !useSnake {
				// The camel branch reports the rule under its normalized name
				// so the generated datapack matches the target version's form.
				meta.Name = normalized
			}
			return meta, true
		}
	}
	return models.GameRuleMetadata{}, false
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := rune(s[i-1])
				if prev >= 'a' && prev <= 'z' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toCamel(s string) string {
	var b strings.Builder
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			b.WriteRune(r - 'a' + 'A')
		} else {
			b.WriteRune(r)
		}
		upper = false
	}
	return b.String()
}
