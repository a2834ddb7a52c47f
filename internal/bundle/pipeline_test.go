package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ServerwaveHost/wave-server-bundler/internal/mcjars"
	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
	"github.com/ServerwaveHost/wave-server-bundler/internal/props"
)

type stubJarResolver struct {
	info *mcjars.ServerJarInfo
	err  error
}

func (s *stubJarResolver) FetchServerJar(_ context.Context, _, _ string) (*mcjars.ServerJarInfo, error) {
	return s.info, s.err
}

func pvWithFile(id, filename, url string) models.ProjectVersion {
	return models.ProjectVersion{
		ID:    id,
		Files: []models.VersionFile{{URL: url, Filename: filename, Primary: true, Size: 10}},
	}
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string][]byte)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = content
	}
	return out
}

func TestPipelineEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload:" + r.URL.Path))
	}))
	defer srv.Close()

	jars := &stubJarResolver{info: &mcjars.ServerJarInfo{JarURL: srv.URL + "/server.jar", BuildID: 1, JarSize: 100}}
	p := New(jars, NewHTTPFetcher("test-agent", nil))

	var (
		percents []int
		messages []string
	)
	req := Request{
		Selection: models.Selection{
			Mods:      []models.ProjectVersion{pvWithFile("m1", "sodium.jar", srv.URL+"/sodium.jar")},
			Datapacks: []models.ProjectVersion{pvWithFile("d1", "tweaks.zip", srv.URL+"/tweaks.zip")},
		},
		Version:      "1.20.1",
		Loader:       "fabric",
		EULAAccepted: true,
		Properties:   props.Synthesize("1.20.1", nil),
		StartScript:  "#!/bin/bash\njava -jar server.jar nogui",
		Gamerules:    []models.GameruleEntry{{Name: "keepInventory", Value: "true"}},
		ProjectTitle: "My Cool Pack!",
	}

	result, err := p.Run(context.Background(), req, func(msg string, pct int) {
		messages = append(messages, msg)
		percents = append(percents, pct)
	})
	if err != nil {
		t.Fatal(err)
	}

	if p.State() != StateComplete {
		t.Errorf("state = %s, want complete", p.State())
	}
	if result.Filename != "my_cool_pack_-1.20.1-fabric.zip" {
		t.Errorf("filename = %q", result.Filename)
	}

	files := readArchive(t, result.Archive)
	for _, path := range []string{
		"server.jar",
		"eula.txt",
		"server.properties",
		"start.sh",
		"mods/sodium.jar",
		"world/datapacks/tweaks.zip",
		"world/datapacks/gamerules.zip",
	} {
		if _, ok := files[path]; !ok {
			t.Errorf("archive missing %s", path)
		}
	}
	if !strings.Contains(string(files["eula.txt"]), "eula=true") {
		t.Errorf("eula.txt = %q", files["eula.txt"])
	}
	if !strings.Contains(string(files["server.properties"]), "max-players=20") {
		t.Errorf("server.properties missing defaults:\n%s", files["server.properties"])
	}

	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress regressed at %d: %v", i, percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("final percent = %d, want 100: %v", percents[len(percents)-1], percents)
	}
	if messages[0] != "Preparing build..." {
		t.Errorf("first message = %q", messages[0])
	}
}

func TestPipelineValidation(t *testing.T) {
	p := New(&stubJarResolver{}, NewHTTPFetcher("", nil))

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "eula_not_accepted",
			req:  Request{Version: "1.20.1", Loader: "fabric"},
			want: "You must accept the EULA to build the server.",
		},
		{
			name: "no_version",
			req:  Request{EULAAccepted: true, Loader: "fabric"},
			want: "Please select a game version.",
		},
		{
			name: "no_loader",
			req:  Request{EULAAccepted: true, Version: "1.20.1"},
			want: "Please select a loader.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Run(context.Background(), tc.req, nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Message != tc.want {
				t.Errorf("message = %q, want %q", verr.Message, tc.want)
			}
			if p.State() != StateFailed {
				t.Errorf("state = %s, want failed", p.State())
			}
		})
	}
}

func TestPipelineJarResolutionFailure(t *testing.T) {
	jars := &stubJarResolver{err: mcjars.ErrNoBuild}
	p := New(jars, NewHTTPFetcher("", nil))

	_, err := p.Run(context.Background(), Request{
		EULAAccepted: true, Version: "1.20.1", Loader: "fabric",
	}, nil)

	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want ResolutionError", err)
	}
	if !errors.Is(err, mcjars.ErrNoBuild) {
		t.Errorf("err must wrap the resolver failure, got %v", err)
	}
}

func TestPipelineDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.jar" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	jars := &stubJarResolver{info: &mcjars.ServerJarInfo{JarURL: srv.URL + "/server.jar"}}
	p := New(jars, NewHTTPFetcher("", nil))

	_, err := p.Run(context.Background(), Request{
		Selection: models.Selection{
			Mods: []models.ProjectVersion{pvWithFile("m1", "broken.jar", srv.URL+"/broken.jar")},
		},
		EULAAccepted: true,
		Version:      "1.20.1",
		Loader:       "fabric",
	}, nil)

	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if nerr.URL != srv.URL+"/broken.jar" {
		t.Errorf("failing URL = %q", nerr.URL)
	}
	if p.State() != StateFailed {
		t.Errorf("state = %s, want failed", p.State())
	}
}

func TestPipelineCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	jars := &stubJarResolver{info: &mcjars.ServerJarInfo{JarURL: srv.URL + "/server.jar"}}
	p := New(jars, NewHTTPFetcher("", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Request{
		EULAAccepted: true, Version: "1.20.1", Loader: "fabric",
	}, nil)
	if err == nil {
		t.Fatal("want error for cancelled build")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}

func TestPipelineMrpackInstance(t *testing.T) {
	var baseURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pack.mrpack" {
			var archiveBuf bytes.Buffer
			zw := zip.NewWriter(&archiveBuf)
			idx, err := zw.Create("modrinth.index.json")
			if err != nil {
				t.Error(err)
				return
			}
			_, _ = idx.Write([]byte(`{
				"name": "Adventure Pack",
				"files": [{"path": "mods/fabric-api.jar", "downloads": ["` + baseURL + `/fabric-api.jar"], "fileSize": 3}]
			}`))
			if err := zw.Close(); err != nil {
				t.Error(err)
				return
			}
			_, _ = w.Write(archiveBuf.Bytes())
			return
		}
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()
	baseURL = srv.URL

	jars := &stubJarResolver{info: &mcjars.ServerJarInfo{JarURL: srv.URL + "/server.jar"}}
	p := New(jars, NewHTTPFetcher("", nil))

	instance := pvWithFile("inst", "pack.mrpack", srv.URL+"/pack.mrpack")
	result, err := p.Run(context.Background(), Request{
		Selection:    models.Selection{Instance: &instance},
		EULAAccepted: true,
		Version:      "1.20.1",
		Loader:       "fabric",
		Properties:   props.GenericBase(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The instance name from the manifest wins over the project title.
	if result.Filename != "adventure_pack-1.20.1-fabric.zip" {
		t.Errorf("filename = %q", result.Filename)
	}
	files := readArchive(t, result.Archive)
	if _, ok := files["mods/fabric-api.jar"]; !ok {
		t.Errorf("archive missing the expanded modpack entry, has %v", keys(files))
	}
}

func TestPipelineRejectsConcurrentRun(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	jars := &stubJarResolver{info: &mcjars.ServerJarInfo{JarURL: srv.URL + "/server.jar"}}
	p := New(jars, NewHTTPFetcher("", nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run(context.Background(), Request{
			EULAAccepted: true, Version: "1.20.1", Loader: "fabric",
			Properties: props.GenericBase(),
		}, nil)
	}()

	// Wait until the first run is blocked inside the download.
	for p.State() != StateDownloading {
		select {
		case <-done:
			t.Fatal("first run finished before it could block")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := p.Run(context.Background(), Request{EULAAccepted: true, Version: "1.20.1", Loader: "fabric"}, nil)
	if err == nil || !strings.Contains(err.Error(), "already in progress") {
		t.Errorf("err = %v, want already-in-progress", err)
	}

	close(block)
	<-done
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title, version, loader string
		want                   string
	}{
		{"My Cool Pack!", "1.20.1", "fabric", "my_cool_pack_-1.20.1-fabric.zip"},
		{"plain", "1.21", "paper", "plain-1.21-paper.zip"},
		{"Ünïcödé Pack", "1.19", "forge", "_n_c_d__pack-1.19-forge.zip"},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			if got := Filename(tc.title, tc.version, tc.loader); got != tc.want {
				t.Errorf("Filename(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
