// Package compat computes game-version and loader compatibility across a
// heterogeneous selection of instance, mods and datapacks.
//
// Incompatibilities are first-class computed states, never errors: callers use
// the report to block the build action and to highlight offending items.
package compat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// Report is the shared output shape of both resolvers. CommonSet holds the
// game versions (or loaders) every selected item can agree on; when
// Incompatible is set it may instead hold a best-effort suggestion (see the
// loader plurality fallback).
type Report struct {
	Incompatible      bool                    `json:"incompatible"`
	ErrorMessage      string                  `json:"error_message,omitempty"`
	IncompatibleItems []models.ProjectVersion `json:"incompatible_items,omitempty"`
	CommonSet         []string                `json:"common_set"`
}

// ResolveVersions computes the common game versions of a selection.
func ResolveVersions(sel models.Selection) Report {
	r := Report{CommonSet: []string{}}

	var instanceVersions []string
	if sel.Instance != nil {
		instanceVersions = sel.Instance.GameVersions
	}

	if sel.PinnedVersion != "" {
		r.CommonSet = append(r.CommonSet, sel.PinnedVersion)

		if sel.Instance != nil && !contains(instanceVersions, sel.PinnedVersion) {
			r.Incompatible = true
			r.ErrorMessage = fmt.Sprintf("Incompatible versions: Instance must support %s", sel.PinnedVersion)
			r.IncompatibleItems = append(r.IncompatibleItems, *sel.Instance)
		}

		// The instance check takes priority: when the instance alone cannot
		// run the pinned version there is no point scanning the rest.
		if !r.Incompatible {
			badDatapacks := exclude(sel.Datapacks, func(v models.ProjectVersion) bool {
				return contains(v.GameVersions, sel.PinnedVersion)
			})
			badMods := exclude(sel.Mods, func(v models.ProjectVersion) bool {
				return contains(v.GameVersions, sel.PinnedVersion)
			})
			if len(badDatapacks) > 0 || len(badMods) > 0 {
				r.Incompatible = true
				r.ErrorMessage = fmt.Sprintf("Incompatible versions: All selected datapacks and mods and instance must support %s", sel.PinnedVersion)
				r.IncompatibleItems = append(r.IncompatibleItems, badDatapacks...)
				r.IncompatibleItems = append(r.IncompatibleItems, badMods...)
			}
		}
		return r
	}

	if sel.Instance != nil {
		r.CommonSet = append(r.CommonSet, instanceVersions...)

		badDatapacks := exclude(sel.Datapacks, func(v models.ProjectVersion) bool {
			return intersects(v.GameVersions, instanceVersions)
		})
		badMods := exclude(sel.Mods, func(v models.ProjectVersion) bool {
			return intersects(v.GameVersions, instanceVersions)
		})
		if len(badDatapacks) > 0 || len(badMods) > 0 {
			r.Incompatible = true
			r.ErrorMessage = "Incompatible versions: No common game version between selected datapacks, mods and instance."
			r.IncompatibleItems = append(r.IncompatibleItems, badDatapacks...)
			r.IncompatibleItems = append(r.IncompatibleItems, badMods...)
		}
		return r
	}

	commonDatapack := commonVersions(sel.Datapacks)
	commonMod := commonVersions(sel.Mods)

	// When one group is empty, the union of the two group-commons is the
	// comparison baseline rather than an empty intersection.
	var baseline []string
	if len(commonDatapack) == 0 || len(commonMod) == 0 {
		baseline = append(append([]string{}, commonDatapack...), commonMod...)
	} else {
		baseline = intersect(commonDatapack, commonMod)
	}

	var bad []models.ProjectVersion
	bad = append(bad, exclude(sel.Datapacks, func(v models.ProjectVersion) bool {
		return intersects(v.GameVersions, baseline)
	})...)
	bad = append(bad, exclude(sel.Mods, func(v models.ProjectVersion) bool {
		return intersects(v.GameVersions, baseline)
	})...)

	if len(bad) > 0 {
		r.Incompatible = true
		r.ErrorMessage = "Incompatible versions: No common game version between selected datapacks and mods."
		r.IncompatibleItems = append(r.IncompatibleItems, bad...)
	}
	r.CommonSet = append(r.CommonSet, baseline...)
	return r
}

// ResolveLoaders computes the common loaders of a selection.
//
// When the selected mods share no loader at all, the report still flags the
// selection incompatible but fills CommonSet with the plurality loader(s) —
// the loaders appearing in the most mods — as a best-effort suggestion, not a
// strict constraint.
func ResolveLoaders(sel models.Selection) Report {
	r := Report{CommonSet: []string{}}

	var commonModLoaders []string
	haveMods := len(sel.Mods) > 0
	if haveMods {
		commonModLoaders = sel.Mods[0].Loaders
		for _, mod := range sel.Mods[1:] {
			commonModLoaders = intersect(commonModLoaders, mod.Loaders)
		}
	}

	if sel.Instance != nil {
		instanceLoaders := sel.Instance.Loaders
		badMods := exclude(sel.Mods, func(v models.ProjectVersion) bool {
			return intersects(v.Loaders, instanceLoaders)
		})
		if len(badMods) > 0 {
			r.Incompatible = true
			r.ErrorMessage = fmt.Sprintf("Incompatible mod loaders between mods and modpack. All mods must have the loader: %s", strings.Join(instanceLoaders, ", "))
			r.IncompatibleItems = append(r.IncompatibleItems, badMods...)
		}
		r.CommonSet = append(r.CommonSet, instanceLoaders...)
	}

	if !r.Incompatible && haveMods && len(commonModLoaders) == 0 {
		top := pluralityLoaders(sel.Mods)
		if len(top) > 0 {
			r.CommonSet = append(r.CommonSet, top...)
			badMods := exclude(sel.Mods, func(v models.ProjectVersion) bool {
				return intersects(v.Loaders, r.CommonSet)
			})
			r.IncompatibleItems = append(r.IncompatibleItems, badMods...)
		}
		r.Incompatible = true
		r.ErrorMessage = "Incompatible mod loaders between mods selected. Please choose a compatible mod loader."
	}

	if len(r.CommonSet) == 0 && len(commonModLoaders) > 0 {
		r.CommonSet = append(r.CommonSet, commonModLoaders...)
	}
	return r
}

// pluralityLoaders returns the loader(s) with the highest occurrence count
// across all mods, keeping every loader tied for the maximum.
func pluralityLoaders(mods []models.ProjectVersion) []string {
	counts := map[string]int{}
	for _, mod := range mods {
		for _, loader := range mod.Loaders {
			counts[loader]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	top := make([]string, 0, len(counts))
	for loader, n := range counts {
		if n == max {
			top = append(top, loader)
		}
	}
	sort.Strings(top)
	return top
}

// commonVersions intersects the supported game versions across the group,
// preserving the first member's ordering. Empty group yields nil.
func commonVersions(group []models.ProjectVersion) []string {
	if len(group) == 0 {
		return nil
	}
	common := group[0].GameVersions
	for _, v := range group[1:] {
		common = intersect(common, v.GameVersions)
	}
	return common
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}

func intersect(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, v := range a {
		if contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

func exclude(group []models.ProjectVersion, ok func(models.ProjectVersion) bool) []models.ProjectVersion {
	var out []models.ProjectVersion
	for _, v := range group {
		if !ok(v) {
			out = append(out, v)
		}
	}
	return out
}
