package gamerule

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// packMeta mirrors the pack.mcmeta descriptor of the generated datapack. The
// declared format range plus the modern_format overlay keeps one archive
// loadable across the whole pack-format compatibility window.
type packMeta struct {
	Pack struct {
		Description      string      `json:"description"`
		PackFormat       int         `json:"pack_format"`
		SupportedFormats formatRange `json:"supported_formats"`
		MinFormat        int         `json:"min_format"`
		MaxFormat        int         `json:"max_format"`
	} `json:"pack"`
	Overlays struct {
		Entries []overlayEntry `json:"entries"`
	} `json:"overlays"`
}

type formatRange struct {
	MinInclusive int `json:"min_inclusive"`
	MaxInclusive int `json:"max_inclusive"`
}

type overlayEntry struct {
	Directory string      `json:"directory"`
	Formats   formatRange `json:"formats"`
}

const (
	packFormatMin    = 4
	packFormatMax    = 94
	overlayFormatMin = 48
	overlayDir       = "modern_format"
)

func newPackMeta() packMeta {
	var meta packMeta
	meta.Pack.Description = "Universal Gamerule Pack"
	meta.Pack.PackFormat = packFormatMin
	meta.Pack.SupportedFormats = formatRange{MinInclusive: packFormatMin, MaxInclusive: packFormatMax}
	meta.Pack.MinFormat = packFormatMin
	meta.Pack.MaxFormat = packFormatMax
	meta.Overlays.Entries = []overlayEntry{
		{Directory: overlayDir, Formats: formatRange{MinInclusive: overlayFormatMin, MaxInclusive: packFormatMax}},
	}
	return meta
}

// Datapack builds gamerules.zip: a pack.mcmeta descriptor plus a load
// function applying one `gamerule <name> <value>` per entry, wired into the
// minecraft:load tag and mirrored under the modern-format overlay directory.
func Datapack(entries []models.GameruleEntry) ([]byte, error) {
	metaBytes, err := json.Marshal(newPackMeta())
	if err != nil {
		return nil, fmt.Errorf("marshaling pack.mcmeta: %w", err)
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("gamerule %s %s", entry.Name, entry.Value))
	}
	function := strings.Join(lines, "\n")

	tagBytes, err := json.MarshalIndent(map[string][]string{"values": {"gamerule_pack:load"}}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling load tag: %w", err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := []struct {
		path string
		data []byte
	}{
		{"pack.mcmeta", metaBytes},
		{"data/gamerule_pack/function/load.mcfunction", []byte(function)},
		{"data/minecraft/tags/functions/load.json", tagBytes},
		{overlayDir + "/data/gamerule_pack/functions/load.mcfunction", []byte(function)},
		{overlayDir + "/data/minecraft/tags/function/load.json", tagBytes},
	}
	for _, f := range files {
		entry, err := w.Create(f.path)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", f.path, err)
		}
		if _, err := entry.Write(f.data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.path, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing gamerule datapack: %w", err)
	}
	return buf.Bytes(), nil
}
