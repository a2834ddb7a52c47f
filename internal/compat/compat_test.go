package compat

import (
	"reflect"
	"testing"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

func pv(id string, versions []string, loaders []string) models.ProjectVersion {
	return models.ProjectVersion{ID: id, GameVersions: versions, Loaders: loaders}
}

func ids(items []models.ProjectVersion) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestResolveVersionsEmptySelection(t *testing.T) {
	r := ResolveVersions(models.Selection{})
	if r.Incompatible {
		t.Fatalf("empty selection must never be incompatible: %+v", r)
	}
	if len(r.CommonSet) != 0 {
		t.Fatalf("empty selection CommonSet = %v, want empty", r.CommonSet)
	}
}

func TestResolveVersionsPinned(t *testing.T) {
	instance := pv("inst", []string{"1.20", "1.19"}, []string{"fabric"})

	t.Run("instance_excludes_pin_short_circuits", func(t *testing.T) {
		sel := models.Selection{
			PinnedVersion: "1.18",
			Instance:      &instance,
			// This mod also misses 1.18 but must not be reported: the
			// instance check stops the scan.
			Mods: []models.ProjectVersion{pv("mod", []string{"1.20"}, []string{"fabric"})},
		}
		r := ResolveVersions(sel)
		if !r.Incompatible {
			t.Fatal("want incompatible")
		}
		if got := ids(r.IncompatibleItems); !reflect.DeepEqual(got, []string{"inst"}) {
			t.Errorf("IncompatibleItems = %v, want [inst]", got)
		}
		if !reflect.DeepEqual(r.CommonSet, []string{"1.18"}) {
			t.Errorf("CommonSet = %v, want [1.18]", r.CommonSet)
		}
	})

	t.Run("mod_excludes_pin", func(t *testing.T) {
		sel := models.Selection{
			PinnedVersion: "1.20",
			Instance:      &instance,
			Mods:          []models.ProjectVersion{pv("mod", []string{"1.18"}, []string{"fabric"})},
		}
		r := ResolveVersions(sel)
		if !r.Incompatible {
			t.Fatal("want incompatible")
		}
		if got := ids(r.IncompatibleItems); !reflect.DeepEqual(got, []string{"mod"}) {
			t.Errorf("IncompatibleItems = %v, want [mod]", got)
		}
	})

	t.Run("all_support_pin", func(t *testing.T) {
		sel := models.Selection{
			PinnedVersion: "1.20",
			Instance:      &instance,
			Mods:          []models.ProjectVersion{pv("mod", []string{"1.20", "1.19"}, []string{"fabric"})},
		}
		r := ResolveVersions(sel)
		if r.Incompatible {
			t.Fatalf("unexpected incompatibility: %+v", r)
		}
	})
}

func TestResolveVersionsInstance(t *testing.T) {
	instance := pv("inst", []string{"1.20", "1.19"}, []string{"fabric"})

	sel := models.Selection{
		Instance: &instance,
		Mods:     []models.ProjectVersion{pv("mod", []string{"1.18"}, []string{"fabric"})},
	}
	r := ResolveVersions(sel)
	if !r.Incompatible {
		t.Fatal("mod supporting only 1.18 against a 1.20/1.19 instance must be incompatible")
	}
	if got := ids(r.IncompatibleItems); !reflect.DeepEqual(got, []string{"mod"}) {
		t.Errorf("IncompatibleItems = %v, want [mod]", got)
	}
	if !reflect.DeepEqual(r.CommonSet, []string{"1.20", "1.19"}) {
		t.Errorf("CommonSet = %v, want instance versions", r.CommonSet)
	}
}

func TestResolveVersionsGroups(t *testing.T) {
	t.Run("mods_and_datapacks_intersect", func(t *testing.T) {
		sel := models.Selection{
			Mods:      []models.ProjectVersion{pv("m1", []string{"1.20", "1.19"}, nil), pv("m2", []string{"1.20"}, nil)},
			Datapacks: []models.ProjectVersion{pv("d1", []string{"1.20", "1.18"}, nil)},
		}
		r := ResolveVersions(sel)
		if r.Incompatible {
			t.Fatalf("unexpected incompatibility: %+v", r)
		}
		if !reflect.DeepEqual(r.CommonSet, []string{"1.20"}) {
			t.Errorf("CommonSet = %v, want [1.20]", r.CommonSet)
		}
	})

	t.Run("empty_group_uses_union_baseline", func(t *testing.T) {
		sel := models.Selection{
			Mods: []models.ProjectVersion{pv("m1", []string{"1.20"}, nil)},
		}
		r := ResolveVersions(sel)
		if r.Incompatible {
			t.Fatalf("unexpected incompatibility: %+v", r)
		}
		if !reflect.DeepEqual(r.CommonSet, []string{"1.20"}) {
			t.Errorf("CommonSet = %v, want [1.20]", r.CommonSet)
		}
	})

	t.Run("disjoint_groups", func(t *testing.T) {
		sel := models.Selection{
			Mods:      []models.ProjectVersion{pv("m1", []string{"1.20"}, nil)},
			Datapacks: []models.ProjectVersion{pv("d1", []string{"1.18"}, nil)},
		}
		r := ResolveVersions(sel)
		if !r.Incompatible {
			t.Fatal("disjoint mod/datapack versions must be incompatible")
		}
	})
}

func TestResolveLoadersInstance(t *testing.T) {
	instance := pv("inst", nil, []string{"fabric"})
	sel := models.Selection{
		Instance: &instance,
		Mods: []models.ProjectVersion{
			pv("ok", nil, []string{"fabric", "quilt"}),
			pv("bad", nil, []string{"forge"}),
		},
	}
	r := ResolveLoaders(sel)
	if !r.Incompatible {
		t.Fatal("forge-only mod against a fabric instance must be incompatible")
	}
	if got := ids(r.IncompatibleItems); !reflect.DeepEqual(got, []string{"bad"}) {
		t.Errorf("IncompatibleItems = %v, want [bad]", got)
	}
	if !reflect.DeepEqual(r.CommonSet, []string{"fabric"}) {
		t.Errorf("CommonSet = %v, want [fabric]", r.CommonSet)
	}
}

func TestResolveLoadersPlurality(t *testing.T) {
	t.Run("majority_wins", func(t *testing.T) {
		sel := models.Selection{
			Mods: []models.ProjectVersion{
				pv("m1", nil, []string{"fabric"}),
				pv("m2", nil, []string{"fabric"}),
				pv("m3", nil, []string{"forge"}),
			},
		}
		r := ResolveLoaders(sel)
		if !r.Incompatible {
			t.Fatal("mods sharing no loader must stay flagged incompatible")
		}
		if !reflect.DeepEqual(r.CommonSet, []string{"fabric"}) {
			t.Errorf("CommonSet = %v, want plurality suggestion [fabric]", r.CommonSet)
		}
		if got := ids(r.IncompatibleItems); !reflect.DeepEqual(got, []string{"m3"}) {
			t.Errorf("IncompatibleItems = %v, want [m3]", got)
		}
	})

	t.Run("tie_keeps_both", func(t *testing.T) {
		sel := models.Selection{
			Mods: []models.ProjectVersion{
				pv("m1", nil, []string{"fabric"}),
				pv("m2", nil, []string{"forge"}),
			},
		}
		r := ResolveLoaders(sel)
		if !r.Incompatible {
			t.Fatal("want incompatible")
		}
		if !reflect.DeepEqual(r.CommonSet, []string{"fabric", "forge"}) {
			t.Errorf("CommonSet = %v, want tied [fabric forge]", r.CommonSet)
		}
	})
}

func TestResolveLoadersCommon(t *testing.T) {
	sel := models.Selection{
		Mods: []models.ProjectVersion{
			pv("m1", nil, []string{"fabric", "quilt"}),
			pv("m2", nil, []string{"quilt"}),
		},
	}
	r := ResolveLoaders(sel)
	if r.Incompatible {
		t.Fatalf("unexpected incompatibility: %+v", r)
	}
	if !reflect.DeepEqual(r.CommonSet, []string{"quilt"}) {
		t.Errorf("CommonSet = %v, want [quilt]", r.CommonSet)
	}
}
