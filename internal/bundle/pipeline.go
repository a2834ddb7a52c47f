// Package bundle assembles a ready-to-run server archive from a resolved
// selection: server jar, content files, configuration and support datapack,
// compressed into a single zip.
package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/ServerwaveHost/wave-server-bundler/internal/gamerule"
	"github.com/ServerwaveHost/wave-server-bundler/internal/mcjars"
	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
	"github.com/ServerwaveHost/wave-server-bundler/internal/mrpack"
	"github.com/ServerwaveHost/wave-server-bundler/internal/props"
)

// State is the pipeline's current phase.
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateResolvingJar     State = "resolving_jar"
	StateCollectingAssets State = "collecting_assets"
	StateDownloading      State = "downloading"
	StatePackaging        State = "packaging"
	StateCompressing      State = "compressing"
	StateEmitting         State = "emitting"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
)

// JarResolver looks up the server jar for a loader+version pair. The
// build-index client satisfies this in production.
type JarResolver interface {
	FetchServerJar(ctx context.Context, loaderName, version string) (*mcjars.ServerJarInfo, error)
}

// ProgressFunc receives human-readable build progress. Percent is
// monotonically non-decreasing over a run and ends at 100 on success.
type ProgressFunc func(message string, percent int)

// Request carries everything one build needs.
type Request struct {
	Selection    models.Selection
	Version      string
	Loader       string
	EULAAccepted bool
	Properties   props.Profile
	StartScript  string
	Gamerules    []models.GameruleEntry
	ProjectTitle string
}

// Result is the finished bundle.
type Result struct {
	Filename string
	Archive  []byte
}

// Pipeline drives a build from validation through emit. One build runs at a
// time; a second Run while one is active fails immediately.
type Pipeline struct {
	jars        JarResolver
	fetcher     Fetcher
	concurrency int

	mu      sync.Mutex
	state   State
	running bool
}

// New creates a pipeline with sequential downloads.
func New(jars JarResolver, fetcher Fetcher) *Pipeline {
	return &Pipeline{jars: jars, fetcher: fetcher, concurrency: 1, state: StateIdle}
}

// SetConcurrency bounds the number of parallel asset downloads. Values below
// one keep downloads sequential.
func (p *Pipeline) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	p.concurrency = n
}

// State reports the pipeline's current phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run executes a single build. A nil progress callback is allowed.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, errors.New("a build is already in progress")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	if progress == nil {
		progress = func(string, int) {}
	}

	result, err := p.run(ctx, req, progress)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}
	p.setState(StateComplete)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	p.setState(StateValidating)
	progress("Preparing build...", 0)
	if err := validate(req); err != nil {
		return nil, err
	}

	p.setState(StateResolvingJar)
	progress("Fetching server jar info...", 2)
	jar, err := p.jars.FetchServerJar(ctx, req.Loader, req.Version)
	if err != nil {
		return nil, &ResolutionError{Loader: req.Loader, Version: req.Version, Err: err}
	}

	p.setState(StateCollectingAssets)
	progress("Collecting files...", 5)
	downloads, instanceName, err := p.collect(ctx, req, jar)
	if err != nil {
		return nil, err
	}

	p.setState(StateDownloading)
	payloads, err := p.download(ctx, downloads, progress)
	if err != nil {
		return nil, err
	}

	p.setState(StatePackaging)
	progress("Adding configuration files...", 88)
	files, err := assemble(req, downloads, payloads)
	if err != nil {
		return nil, err
	}

	p.setState(StateCompressing)
	progress("Compressing files...", 92)
	archive, err := compress(files, func(pct int) {
		progress(fmt.Sprintf("Compressing files... %d%%", pct), 92+int(math.Round(float64(pct)*0.07)))
	})
	if err != nil {
		return nil, err
	}

	p.setState(StateEmitting)
	title := instanceName
	if title == "" {
		title = req.ProjectTitle
	}
	if title == "" {
		title = "minecraft-server"
	}
	filename := Filename(title, req.Version, req.Loader)
	progress("Finalizing bundle...", 99)

	progress(fmt.Sprintf("Server build complete! %s", filename), 100)
	return &Result{Filename: filename, Archive: archive}, nil
}

func validate(req Request) error {
	if !req.EULAAccepted {
		return &ValidationError{Message: "You must accept the EULA to build the server."}
	}
	if req.Version == "" {
		return &ValidationError{Message: "Please select a game version."}
	}
	if req.Loader == "" {
		return &ValidationError{Message: "Please select a loader."}
	}
	return nil
}

// collect builds the download list: the server jar at the archive root, the
// instance (an .mrpack is fetched and expanded, anything else lands at the
// root), then mods and datapacks under their folders.
func (p *Pipeline) collect(ctx context.Context, req Request, jar *mcjars.ServerJarInfo) ([]models.DownloadItem, string, error) {
	downloads := []models.DownloadItem{{
		URL:      jar.JarURL,
		Filename: "server.jar",
		Folder:   "",
		Size:     jar.JarSize,
	}}

	var instanceName string
	if inst := req.Selection.Instance; inst != nil {
		primary, ok := inst.PrimaryFile()
		switch {
		case ok && strings.HasSuffix(primary.Filename, ".mrpack"):
			data, err := p.fetcher.Fetch(ctx, primary.URL)
			if err != nil {
				return nil, "", &NetworkError{URL: primary.URL, Err: err}
			}
			extracted, err := mrpack.ExtractIndex(data)
			if err != nil {
				return nil, "", fmt.Errorf("expanding modpack %s: %w", primary.Filename, err)
			}
			instanceName = extracted.Name
			for _, e := range extracted.Entries {
				downloads = append(downloads, models.DownloadItem{
					URL:      e.URL,
					Filename: e.Filename,
					Folder:   e.Folder,
					Size:     e.Size,
				})
			}
		case ok:
			downloads = append(downloads, models.DownloadItem{
				URL:      primary.URL,
				Filename: primary.Filename,
				Folder:   "",
				Size:     primary.Size,
			})
		}
	}

	downloads = append(downloads, collectFiles(req.Selection.Mods, "mods")...)
	downloads = append(downloads, collectFiles(req.Selection.Datapacks, "world/datapacks")...)
	return downloads, instanceName, nil
}

func collectFiles(versions []models.ProjectVersion, folder string) []models.DownloadItem {
	var items []models.DownloadItem
	for _, v := range versions {
		f, ok := v.PrimaryFile()
		if !ok {
			continue
		}
		items = append(items, models.DownloadItem{
			URL:      f.URL,
			Filename: f.Filename,
			Folder:   folder,
			Size:     f.Size,
		})
	}
	return items
}

// download fetches every item through the bounded worker pool. Progress moves
// from 5 to 85 by completion count; the first failure cancels the rest.
func (p *Pipeline) download(ctx context.Context, items []models.DownloadItem, progress ProgressFunc) ([][]byte, error) {
	total := len(items)
	payloads := make([][]byte, total)
	if total == 0 {
		progress("Downloads complete.", 85)
		return payloads, nil
	}

	workers := p.concurrency
	if workers > total {
		workers = total
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		completed int
		firstErr  error
	)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				data, err := p.fetcher.Fetch(ctx, items[i].URL)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = &NetworkError{URL: items[i].URL, Err: err}
						cancel()
					}
					mu.Unlock()
					continue
				}
				payloads[i] = data
				completed++
				pct := 5 + int(math.Round(float64(completed)/float64(total)*80))
				progress(fmt.Sprintf("Downloading: %s (%d/%d)", items[i].Filename, completed, total), pct)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i := 0; i < total; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := parent.Err(); err != nil {
		return nil, fmt.Errorf("build cancelled: %w", err)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	progress("Downloads complete.", 85)
	return payloads, nil
}

// archiveFile is one entry of the final bundle, path relative to its root.
type archiveFile struct {
	path string
	data []byte
}

// assemble lays out the archive: downloaded assets at their folder/filename
// paths, then the configuration files.
func assemble(req Request, downloads []models.DownloadItem, payloads [][]byte) ([]archiveFile, error) {
	files := make([]archiveFile, 0, len(downloads)+4)
	for i, item := range downloads {
		p := item.Filename
		if item.Folder != "" {
			p = item.Folder + "/" + item.Filename
		}
		files = append(files, archiveFile{path: p, data: payloads[i]})
	}

	files = append(files, archiveFile{
		path: "eula.txt",
		data: []byte("# Accepted via wave-server-bundler\neula=true\n"),
	})
	files = append(files, archiveFile{
		path: "server.properties",
		data: []byte(props.Render(req.Properties)),
	})

	if req.StartScript != "" {
		files = append(files, archiveFile{path: "start.sh", data: []byte(req.StartScript)})
	}

	if len(req.Gamerules) > 0 {
		pack, err := gamerule.Datapack(req.Gamerules)
		if err != nil {
			return nil, &ArchiveError{Err: fmt.Errorf("generating gamerule datapack: %w", err)}
		}
		files = append(files, archiveFile{path: "world/datapacks/gamerules.zip", data: pack})
	}
	return files, nil
}

// compress serializes the archive entries into one deflate-compressed zip,
// reporting percent-complete per entry written.
func compress(files []archiveFile, onPercent func(int)) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for i, f := range files {
		entry, err := w.Create(f.path)
		if err != nil {
			return nil, &ArchiveError{Err: err}
		}
		if _, err := entry.Write(f.data); err != nil {
			return nil, &ArchiveError{Err: err}
		}
		onPercent(int(math.Round(float64(i+1) / float64(len(files)) * 100)))
	}

	if err := w.Close(); err != nil {
		return nil, &ArchiveError{Err: err}
	}
	return buf.Bytes(), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Filename derives the bundle's artifact name from the project title, game
// version and loader.
func Filename(title, version, loader string) string {
	safe := strings.ToLower(unsafeFilenameChars.ReplaceAllString(title, "_"))
	return fmt.Sprintf("%s-%s-%s.zip", safe, version, loader)
}
