package wiki

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// HistoryParser extracts the gamerule table and change history from the
// English wiki's rendered article HTML.
type HistoryParser struct{}

var (
	ruleNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	jeNamePattern   = regexp.MustCompile(`JE:\s*(\S+)`)
	wikiRefPattern  = regexp.MustCompile(`\[.*?\]`)
)

// Parse implements Parser over a goquery document.
func (HistoryParser) Parse(html string) ([]models.GameRuleEvent, map[string]models.GameRuleMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("loading page HTML: %w", err)
	}

	metadata := parseRuleTable(doc)
	events := parseHistoryTable(doc)
	return events, metadata, nil
}

// parseRuleTable reads the current-rules table: one row per rule with name,
// description, default value and type columns. Bedrock-only name variants
// are stripped.
func parseRuleTable(doc *goquery.Document) map[string]models.GameRuleMetadata {
	metadata := make(map[string]models.GameRuleMetadata)

	doc.Find(".wikitable.sortable tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 5 {
			return
		}

		name := strings.TrimSpace(cols.Eq(0).Text())
		if i := strings.Index(name, "BE:"); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		if m := jeNamePattern.FindStringSubmatch(name); m != nil {
			name = m[1]
		}
		if name == "" {
			return
		}

		metadata[name] = models.GameRuleMetadata{
			Name:         name,
			Description:  strings.TrimSpace(cols.Eq(1).Text()),
			DefaultValue: strings.TrimSpace(wikiRefPattern.ReplaceAllString(cols.Eq(2).Text(), "")),
			Type:         strings.TrimSpace(cols.Eq(3).Text()),
		}
	})

	return metadata
}

// parseHistoryTable walks the history table's Java Edition section. Each row
// names its version in a th link (carried forward for continuation rows) and
// describes additions, renames or removals with the affected rules in code
// tags. Renames list old and new names in pairs.
func parseHistoryTable(doc *goquery.Document) []models.GameRuleEvent {
	var events []models.GameRuleEvent

	rows := doc.Find(`table[data-description="History"] tr`)
	currentVersion := ""
	sectionsSeen := 0

	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		header := row.Find("th[colspan='8']")
		if header.Length() > 0 {
			sectionsSeen++
			if sectionsSeen > 1 {
				return false
			}
			// Only the Java Edition section applies.
			return strings.TrimSpace(header.Text()) == "Java Edition"
		}

		if link := row.Find("th.nowrap a").First(); link.Length() > 0 {
			currentVersion = strings.TrimSpace(link.Text())
		}
		if currentVersion == "" {
			return true
		}

		text := row.Find("td").Text()
		names := extractRuleNames(row)

		switch {
		case strings.Contains(text, "Added"):
			for _, name := range names {
				events = append(events, models.GameRuleEvent{
					Version: currentVersion, Action: models.RuleAdd, RuleName: name,
				})
			}
		case strings.Contains(text, "Renamed"):
			for i := 0; i+1 < len(names); i += 2 {
				events = append(events, models.GameRuleEvent{
					Version: currentVersion, Action: models.RuleRename,
					OldName: names[i], RuleName: names[i+1],
				})
			}
		case strings.Contains(text, "Removed"):
			for _, name := range names {
				events = append(events, models.GameRuleEvent{
					Version: currentVersion, Action: models.RuleRemove, RuleName: name,
				})
			}
		}
		return true
	})

	return events
}

func extractRuleNames(row *goquery.Selection) []string {
	var names []string
	row.Find("code").Each(func(_ int, el *goquery.Selection) {
		name := strings.TrimSpace(el.Text())
		if ruleNamePattern.MatchString(name) {
			names = append(names, name)
		}
	})
	return names
}
