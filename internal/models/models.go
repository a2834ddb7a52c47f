package models

// Project represents a Modrinth project (mod, modpack or datapack)
type Project struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	ClientSide  string   `json:"client_side"`
	ServerSide  string   `json:"server_side"`
	ProjectType string   `json:"project_type"`
	Downloads   int      `json:"downloads"`
	IconURL     string   `json:"icon_url"`
	Author      string   `json:"author"`
	Versions    []string `json:"versions"`
	License     string   `json:"license"`
}

// VersionFile represents a downloadable file attached to a project version
type VersionFile struct {
	Hashes   map[string]string `json:"hashes"`
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
}

// VersionDependency represents a dependency reference of a project version
type VersionDependency struct {
	VersionID      string `json:"version_id"`
	ProjectID      string `json:"project_id"`
	FileName       string `json:"file_name"`
	DependencyType string `json:"dependency_type"`
}

// ProjectVersion represents a published version of a project
type ProjectVersion struct {
	ID            string              `json:"id"`
	ProjectID     string              `json:"project_id"`
	Name          string              `json:"name"`
	VersionNumber string              `json:"version_number"`
	GameVersions  []string            `json:"game_versions"`
	VersionType   string              `json:"version_type"`
	Loaders       []string            `json:"loaders"`
	Featured      bool                `json:"featured"`
	Dependencies  []VersionDependency `json:"dependencies"`
	Files         []VersionFile       `json:"files"`
	DatePublished string              `json:"date_published"`
	Downloads     int                 `json:"downloads"`
}

// PrimaryFile returns the file flagged as primary, falling back to the first
// file when none carries the flag. The second return is false when the version
// has no files at all.
func (v ProjectVersion) PrimaryFile() (VersionFile, bool) {
	for _, f := range v.Files {
		if f.Primary {
			return f, true
		}
	}
	if len(v.Files) > 0 {
		return v.Files[0], true
	}
	return VersionFile{}, false
}

// Loader represents a mod-loading runtime family
type Loader struct {
	Name                  string   `json:"name"`
	Icon                  string   `json:"icon"`
	SupportedProjectTypes []string `json:"supported_project_types"`
}

// Category represents a Modrinth category tag
type Category struct {
	Icon        string `json:"icon"`
	Name        string `json:"name"`
	ProjectType string `json:"project_type"`
	Header      string `json:"header"`
}

// GameVersion represents an entry of the game_version tag list
type GameVersion struct {
	Version     string `json:"version"`
	VersionType string `json:"version_type"`
	Date        string `json:"date"`
}

// SearchResults represents a paged project search response
type SearchResults struct {
	Hits      []Project `json:"hits"`
	Offset    int       `json:"offset"`
	Limit     int       `json:"limit"`
	TotalHits int       `json:"total_hits"`
}

// Build represents a single server-jar build from the build index
type Build struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	BuildNumber int    `json:"buildNumber"`
	JarURL      string `json:"jarUrl"`
	JarSize     int64  `json:"jarSize"`
	ZipURL      string `json:"zipUrl"`
	Created     string `json:"created"`
}

// BuildsResponse represents the build-index lookup response
type BuildsResponse struct {
	Success bool    `json:"success"`
	Builds  []Build `json:"builds"`
}

// Selection holds the user's current picks. It is owned by the caller;
// resolvers only read it.
type Selection struct {
	Instance      *ProjectVersion  `json:"instance,omitempty"`
	Mods          []ProjectVersion `json:"mods"`
	Datapacks     []ProjectVersion `json:"datapacks"`
	PinnedVersion string           `json:"pinned_version,omitempty"`
	PinnedLoader  string           `json:"pinned_loader,omitempty"`
}

// Empty reports whether nothing at all is selected or pinned.
func (s Selection) Empty() bool {
	return s.Instance == nil && len(s.Mods) == 0 && len(s.Datapacks) == 0 &&
		s.PinnedVersion == "" && s.PinnedLoader == ""
}

// DownloadItem is one unit of work for the archive assembler
type DownloadItem struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Folder   string `json:"folder"`
	Size     int64  `json:"size,omitempty"`
}

// GameruleEntry is a user-authored gamerule override
type GameruleEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GameRuleAction enumerates the change-history event kinds
type GameRuleAction string

const (
	RuleAdd    GameRuleAction = "add"
	RuleRemove GameRuleAction = "remove"
	RuleRename GameRuleAction = "rename"
)

// GameRuleEvent is a parsed fact from the external gamerule change history
type GameRuleEvent struct {
	Version  string         `json:"version"`
	Action   GameRuleAction `json:"action"`
	RuleName string         `json:"ruleName"`
	OldName  string         `json:"oldName,omitempty"`
}

// GameRuleMetadata carries the best-known description of a gamerule. Values
// are not version-scoped; the history replay decides which rules exist.
type GameRuleMetadata struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DefaultValue string `json:"defaultValue"`
	Type         string `json:"type"`
}

// VersionDiff is one ordered change set of the server.properties schema
type VersionDiff struct {
	Version   string         `json:"version"`
	Additions map[string]any `json:"additions"`
	Removals  []string       `json:"removals,omitempty"`
	Notes     string         `json:"notes,omitempty"`
}
