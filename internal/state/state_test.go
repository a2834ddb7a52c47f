package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s := Default()
	s.Selection.PinnedVersion = "1.20.1"
	s.Config.EULA = true
	s.Config.ChosenVersion = "1.20.1"
	s.Config.SetGamerule(models.GameruleEntry{Name: "keepInventory", Value: "true"})

	if err := Save(path, s); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d", got.SchemaVersion)
	}
	if got.Selection.PinnedVersion != "1.20.1" || !got.Config.EULA {
		t.Errorf("state = %+v", got)
	}
	if len(got.Config.Gamerules) != 1 || got.Config.Gamerules[0].Name != "keepInventory" {
		t.Errorf("gamerules = %+v", got.Config.Gamerules)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Config.AikarFlags || got.Config.RAMMb != 4096 {
		t.Errorf("defaults = %+v", got.Config)
	}
	if got.Config.Properties["max-players"] == nil {
		t.Error("defaults must carry the base properties profile")
	}
}

func TestLoadMigratesV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	v1 := `{"pinned_version": "1.19.2", "mods": [{"id": "v1", "project_id": "p1"}], "datapacks": []}`
	if err := os.WriteFile(path, []byte(v1), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want migrated to %d", got.SchemaVersion, SchemaVersion)
	}
	if got.Selection.PinnedVersion != "1.19.2" || len(got.Selection.Mods) != 1 {
		t.Errorf("migrated selection = %+v", got.Selection)
	}
	if got.Config.RAMMb != 4096 {
		t.Errorf("migrated config must take defaults, got %+v", got.Config)
	}
}

func TestLoadRejectsFutureSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"schemaVersion": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("want error for a schema newer than this build")
	}
}

func TestGameruleHelpers(t *testing.T) {
	var c ServerConfiguration
	c.SetGamerule(models.GameruleEntry{Name: "doFireTick", Value: "false"})
	c.SetGamerule(models.GameruleEntry{Name: "keepInventory", Value: "true"})
	c.SetGamerule(models.GameruleEntry{Name: "doFireTick", Value: "true"})

	if len(c.Gamerules) != 2 {
		t.Fatalf("gamerules = %+v, set must replace by name", c.Gamerules)
	}
	if c.Gamerules[0].Value != "true" {
		t.Errorf("doFireTick = %q, want replaced value", c.Gamerules[0].Value)
	}

	c.RemoveGamerule("doFireTick")
	if len(c.Gamerules) != 1 || c.Gamerules[0].Name != "keepInventory" {
		t.Errorf("gamerules after remove = %+v", c.Gamerules)
	}
}
