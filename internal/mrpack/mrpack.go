// Package mrpack expands a Modrinth modpack archive into its constituent
// downloadable files.
package mrpack

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
)

// ErrIndexMissing is returned when the archive has no modrinth.index.json.
var ErrIndexMissing = errors.New("modrinth.index.json not found in .mrpack")

const indexName = "modrinth.index.json"

// Index is the parsed modrinth.index.json manifest
type Index struct {
	Game          string            `json:"game"`
	FormatVersion int               `json:"formatVersion"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Summary       string            `json:"summary,omitempty"`
	Files         []File            `json:"files"`
	Dependencies  map[string]string `json:"dependencies"`
}

// File is one manifest entry
type File struct {
	Path      string            `json:"path"`
	Hashes    map[string]string `json:"hashes"`
	Env       map[string]string `json:"env"`
	Downloads []string          `json:"downloads"`
	FileSize  int64             `json:"fileSize"`
}

// Entry is an extracted file ready to become a download item, with the
// manifest's relative path split into folder and filename.
type Entry struct {
	URL      string
	Filename string
	Folder   string
	Size     int64
}

// Extracted is the result of expanding a modpack archive
type Extracted struct {
	Name    string
	Entries []Entry
}

// ExtractIndex locates and parses the index file inside a zip-format modpack
// archive. A missing index is a hard failure; manifest entries without a
// download URL are skipped.
func ExtractIndex(data []byte) (*Extracted, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening modpack archive: %w", err)
	}

	var index *Index
	for _, f := range r.File {
		if f.Name != indexName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", indexName, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", indexName, err)
		}
		index = &Index{}
		if err := json.Unmarshal(raw, index); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", indexName, err)
		}
		break
	}
	if index == nil {
		return nil, ErrIndexMissing
	}

	name := index.Name
	if name == "" {
		name = "instance"
	}

	out := &Extracted{Name: name}
	for _, f := range index.Files {
		if len(f.Downloads) == 0 {
			continue
		}
		folder, filename := path.Split(f.Path)
		out.Entries = append(out.Entries, Entry{
			URL:      f.Downloads[0],
			Filename: filename,
			Folder:   trimSlash(folder),
			Size:     f.FileSize,
		})
	}
	return out, nil
}

func trimSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}
