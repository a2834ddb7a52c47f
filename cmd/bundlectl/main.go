// bundlectl is the command-line front-end: it keeps a persisted selection,
// checks compatibility, and writes finished server bundles to disk.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ServerwaveHost/wave-server-bundler/internal/bundle"
	"github.com/ServerwaveHost/wave-server-bundler/internal/cache"
	"github.com/ServerwaveHost/wave-server-bundler/internal/compat"
	"github.com/ServerwaveHost/wave-server-bundler/internal/mcjars"
	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
	"github.com/ServerwaveHost/wave-server-bundler/internal/modrinth"
	"github.com/ServerwaveHost/wave-server-bundler/internal/props"
	"github.com/ServerwaveHost/wave-server-bundler/internal/state"
)

const userAgent = "wave-server-bundler/1.0.0 (bundlectl)"

func statePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "wave-server-bundler", "state.json"), nil
}

func loadState() (state.State, string, error) {
	path, err := statePath()
	if err != nil {
		return state.State{}, "", err
	}
	s, err := state.Load(path)
	return s, path, err
}

func newContentClient() *modrinth.Client {
	return modrinth.NewClient(os.Getenv("MODRINTH_API"), userAgent)
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "bundlectl",
		Usage: "Assemble ready-to-run Minecraft server bundles",
		Commands: []*cli.Command{
			{
				Name:  "versions",
				Usage: "List available game versions",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "snapshots", Usage: "include snapshot versions"},
				},
				Action: func(c *cli.Context) error {
					versions, err := newContentClient().GameVersions(c.Context, modrinth.GameVersionFilter{
						IncludeSnapshots: c.Bool("snapshots"),
					})
					if err != nil {
						return err
					}
					for _, v := range versions {
						fmt.Println(v)
					}
					return nil
				},
			},
			{
				Name:  "loaders",
				Usage: "List loaders able to host server content",
				Action: func(c *cli.Context) error {
					loaders, err := newContentClient().Loaders(c.Context)
					if err != nil {
						return err
					}
					for _, l := range loaders {
						fmt.Println(l.Name)
					}
					return nil
				},
			},
			{
				Name:      "search",
				Usage:     "Search projects",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "project type (mod, datapack, modpack)"},
					&cli.StringFlag{Name: "loader", Usage: "restrict to a loader"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: func(c *cli.Context) error {
					opts := modrinth.SearchOptions{
						Query:  c.Args().First(),
						Loader: c.String("loader"),
						Limit:  c.Int("limit"),
					}
					if projectType := c.String("type"); projectType != "" {
						opts.Facets = map[string][]string{"project_type": {projectType}}
					}

					results, err := newContentClient().Search(c.Context, opts)
					if err != nil {
						return err
					}

					lid := 0
					ltitle := 0
					for _, p := range results.Hits {
						if len(p.ID) > lid {
							lid = len(p.ID)
						}
						if len(p.Title) > ltitle {
							ltitle = len(p.Title)
						}
					}

					fmt.Println()
					fmt.Println(text.AlignDefault.Apply("ID:", lid+2) + text.AlignDefault.Apply("TITLE:", ltitle+2) + "DOWNLOADS:")
					for _, p := range results.Hits {
						fmt.Println(text.AlignDefault.Apply(p.ID, lid+2) + text.AlignDefault.Apply(text.Bold.Sprint(p.Title), ltitle+2) + strconv.Itoa(p.Downloads))
					}
					fmt.Println()
					return nil
				},
			},
			{
				Name:      "pin",
				Usage:     "Pin the target game version and loader",
				ArgsUsage: "<version> <loader>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 2 {
						return errors.New("usage: pin <version> <loader>")
					}
					s, path, err := loadState()
					if err != nil {
						return err
					}
					s.Selection.PinnedVersion = c.Args().Get(0)
					s.Selection.PinnedLoader = c.Args().Get(1)
					s.Config.ChosenVersion = c.Args().Get(0)
					if err := state.Save(path, s); err != nil {
						return err
					}
					pterm.Success.Printfln("Pinned %s / %s", s.Selection.PinnedVersion, s.Selection.PinnedLoader)
					return nil
				},
			},
			{
				Name:      "add",
				Usage:     "Add a project to the selection",
				ArgsUsage: "<project-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "datapack", Usage: "add as a datapack instead of a mod"},
					&cli.BoolFlag{Name: "instance", Usage: "add as the modpack instance"},
				},
				Action: func(c *cli.Context) error {
					projectID := c.Args().First()
					if projectID == "" {
						return errors.New("usage: add <project-id>")
					}

					s, path, err := loadState()
					if err != nil {
						return err
					}

					versions, err := newContentClient().ProjectVersions(c.Context, projectID)
					if err != nil {
						return err
					}

					picked, ok := pickVersion(versions, s.Selection.PinnedVersion, s.Selection.PinnedLoader)
					if !ok {
						pterm.Error.Printfln("No version of %s matches the pinned version/loader", projectID)
						return nil
					}

					switch {
					case c.Bool("instance"):
						s.Selection.Instance = &picked
					case c.Bool("datapack"):
						s.Selection.Datapacks = append(s.Selection.Datapacks, picked)
					default:
						s.Selection.Mods = append(s.Selection.Mods, picked)
					}
					if err := state.Save(path, s); err != nil {
						return err
					}
					pterm.Success.Printfln("Added %s (%s)", picked.Name, picked.VersionNumber)
					return nil
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a project from the selection",
				ArgsUsage: "<project-id>",
				Action: func(c *cli.Context) error {
					projectID := c.Args().First()
					if projectID == "" {
						return errors.New("usage: remove <project-id>")
					}

					s, path, err := loadState()
					if err != nil {
						return err
					}

					s.Selection.Mods = dropProject(s.Selection.Mods, projectID)
					s.Selection.Datapacks = dropProject(s.Selection.Datapacks, projectID)
					if s.Selection.Instance != nil && s.Selection.Instance.ProjectID == projectID {
						s.Selection.Instance = nil
					}
					if err := state.Save(path, s); err != nil {
						return err
					}
					pterm.Success.Printfln("Removed %s", projectID)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show the selection and its compatibility",
				Action: func(c *cli.Context) error {
					s, _, err := loadState()
					if err != nil {
						return err
					}

					fmt.Printf("Pinned: %s / %s\n", orNone(s.Selection.PinnedVersion), orNone(s.Selection.PinnedLoader))
					if s.Selection.Instance != nil {
						fmt.Printf("Instance: %s\n", s.Selection.Instance.Name)
					}
					printVersionList("Mods", s.Selection.Mods)
					printVersionList("Datapacks", s.Selection.Datapacks)

					printReport("Versions", compat.ResolveVersions(s.Selection))
					printReport("Loaders", compat.ResolveLoaders(s.Selection))
					return nil
				},
			},
			{
				Name:  "gamerule",
				Usage: "Manage gamerule overrides",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						ArgsUsage: "<name> <value>",
						Action: func(c *cli.Context) error {
							if c.Args().Len() < 2 {
								return errors.New("usage: gamerule set <name> <value>")
							}
							s, path, err := loadState()
							if err != nil {
								return err
							}
							s.Config.SetGamerule(models.GameruleEntry{Name: c.Args().Get(0), Value: c.Args().Get(1)})
							return state.Save(path, s)
						},
					},
					{
						Name:      "rm",
						ArgsUsage: "<name>",
						Action: func(c *cli.Context) error {
							s, path, err := loadState()
							if err != nil {
								return err
							}
							s.Config.RemoveGamerule(c.Args().First())
							return state.Save(path, s)
						},
					},
					{
						Name: "list",
						Action: func(c *cli.Context) error {
							s, _, err := loadState()
							if err != nil {
								return err
							}
							for _, rule := range s.Config.Gamerules {
								fmt.Printf("%s = %s\n", rule.Name, rule.Value)
							}
							return nil
						},
					},
				},
			},
			{
				Name:  "props",
				Usage: "Print the synthesized server.properties for the pinned version",
				Action: func(c *cli.Context) error {
					s, _, err := loadState()
					if err != nil {
						return err
					}
					if s.Selection.PinnedVersion == "" {
						return errors.New("pin a game version first")
					}
					fmt.Print(props.Render(props.Synthesize(s.Selection.PinnedVersion, s.Config.Properties)))
					return nil
				},
			},
			{
				Name:  "eula",
				Usage: "Accept the EULA",
				Action: func(c *cli.Context) error {
					s, path, err := loadState()
					if err != nil {
						return err
					}
					s.Config.EULA = true
					if err := state.Save(path, s); err != nil {
						return err
					}
					pterm.Success.Println("EULA accepted")
					return nil
				},
			},
			{
				Name:  "build",
				Usage: "Assemble the server bundle and write it to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: ".", Usage: "output directory"},
					&cli.StringFlag{Name: "title", Usage: "bundle title override"},
					&cli.IntFlag{Name: "concurrency", Value: 1, Usage: "parallel downloads"},
				},
				Action: func(c *cli.Context) error {
					s, _, err := loadState()
					if err != nil {
						return err
					}

					report := compat.ResolveVersions(s.Selection)
					if report.Incompatible {
						pterm.Error.Println(report.ErrorMessage)
						return errors.New("selection is incompatible")
					}

					assetCache := cache.NewMemoryCache(cache.DefaultConfig().TTL)
					defer func() {
						_ = assetCache.Close()
					}()

					jars := mcjars.NewClient(os.Getenv("MCJARS_API"), userAgent)
					pipeline := bundle.New(jars, bundle.NewHTTPFetcher(userAgent, assetCache))
					pipeline.SetConcurrency(c.Int("concurrency"))

					bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle("Building").Start()
					if err != nil {
						return err
					}

					result, err := pipeline.Run(c.Context, bundle.Request{
						Selection:    s.Selection,
						Version:      s.Selection.PinnedVersion,
						Loader:       s.Selection.PinnedLoader,
						EULAAccepted: s.Config.EULA,
						Properties:   props.Synthesize(s.Selection.PinnedVersion, s.Config.Properties),
						StartScript:  s.Config.StartScript,
						Gamerules:    s.Config.Gamerules,
						ProjectTitle: c.String("title"),
					}, func(msg string, pct int) {
						bar.UpdateTitle(msg)
						if pct > bar.Current {
							bar.Add(pct - bar.Current)
						}
					})
					if err != nil {
						_, _ = bar.Stop()
						pterm.Error.Printfln("Build failed: %v", err)
						return err
					}
					_, _ = bar.Stop()

					outPath := filepath.Join(c.String("output"), result.Filename)
					if err := os.WriteFile(outPath, result.Archive, 0644); err != nil {
						return fmt.Errorf("writing bundle: %w", err)
					}
					pterm.Success.Printfln("Server build complete! %s", outPath)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Reset the persisted selection and configuration",
				Action: func(c *cli.Context) error {
					path, err := statePath()
					if err != nil {
						return err
					}
					if err := state.Save(path, state.Default()); err != nil {
						return err
					}
					pterm.Success.Println("State cleared")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// pickVersion chooses the newest published version matching the pinned game
// version and loader. Empty pins match anything.
func pickVersion(versions []models.ProjectVersion, pinnedVersion, pinnedLoader string) (models.ProjectVersion, bool) {
	for _, v := range versions {
		if pinnedVersion != "" && !containsString(v.GameVersions, pinnedVersion) {
			continue
		}
		if pinnedLoader != "" && !containsString(v.Loaders, pinnedLoader) {
			continue
		}
		return v, true
	}
	return models.ProjectVersion{}, false
}

func dropProject(versions []models.ProjectVersion, projectID string) []models.ProjectVersion {
	kept := versions[:0]
	for _, v := range versions {
		if v.ProjectID != projectID {
			kept = append(kept, v)
		}
	}
	return kept
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func printVersionList(label string, versions []models.ProjectVersion) {
	if len(versions) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, v := range versions {
		fmt.Printf("  %s (%s)\n", text.Bold.Sprint(v.Name), v.VersionNumber)
	}
}

func printReport(label string, report compat.Report) {
	if report.Incompatible {
		pterm.Error.Printfln("%s: %s", label, report.ErrorMessage)
		return
	}
	if len(report.CommonSet) > 0 {
		pterm.Success.Printfln("%s compatible: %v", label, report.CommonSet)
		return
	}
	pterm.Success.Printfln("%s compatible", label)
}
