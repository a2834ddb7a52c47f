// Package props reconstructs the server.properties key set valid for an
// arbitrary target game version by replaying ordered schema diffs.
package props

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ServerwaveHost/wave-server-bundler/internal/mcversion"
	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// Profile maps property keys to string, number or boolean values.
type Profile map[string]any

// Synthesize replays the diff chain up to and including the greatest entry
// whose version is <= target, starting from the generic base. When no entry
// qualifies the base map is returned unmodified.
//
// If prior is non-nil, values for keys that survive into the new schema are
// carried over — but only when the prior value's kind (string/number/boolean)
// matches the synthesized default's kind, so overrides that went stale across
// a type change (legacy int difficulty, for instance) are silently dropped.
func Synthesize(target string, prior Profile) Profile {
	return synthesize(VersionHistory, target, prior)
}

func synthesize(history []models.VersionDiff, target string, prior Profile) Profile {
	result := GenericBase()
	targetTuple := mcversion.Parse(target)

	// The store order is insertion order; scan for the maximal entry <= target
	// rather than assuming the chain is sorted.
	maxIndex := -1
	var best mcversion.Tuple
	for i, diff := range history {
		entry := mcversion.Parse(diff.Version)
		if mcversion.Compare(entry, targetTuple) <= 0 {
			if best == nil || mcversion.Compare(entry, best) > 0 {
				maxIndex = i
				best = entry
			}
		}
	}
	if maxIndex == -1 {
		return result
	}

	for i := 0; i <= maxIndex; i++ {
		diff := history[i]
		for key, value := range diff.Additions {
			result[key] = value
		}
		for _, key := range diff.Removals {
			delete(result, key)
		}
	}

	for key, value := range prior {
		current, ok := result[key]
		if !ok {
			continue
		}
		if kind(current) == kind(value) {
			result[key] = value
		}
	}
	return result
}

// Render serializes a profile as line-oriented key=value text, one property
// per line with keys sorted for deterministic output.
func Render(p Profile) string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(p[key]))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// kind collapses Go's numeric types into one bucket so a profile that went
// through JSON (float64) still matches the in-code defaults (int).
func kind(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int32, int64, float32, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
