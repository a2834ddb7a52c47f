// Package wiki fetches the gamerule reference page and hands its rendered
// HTML to a caller-provided parser. The page structure changes often, so the
// scraping strategy stays out of this package.
package wiki

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// DefaultBaseURL is the English wiki's MediaWiki API endpoint.
const DefaultBaseURL = "https://minecraft.wiki/api.php"

// gameRulePage is the article carrying both the current rule table and the
// change history.
const gameRulePage = "Game_rule"

// ErrEmptyPage is returned when the API responds without rendered content.
var ErrEmptyPage = errors.New("wiki returned no rendered page content")

// Parser turns the rendered page HTML into history events and per-rule
// metadata.
type Parser interface {
	Parse(html string) ([]models.GameRuleEvent, map[string]models.GameRuleMetadata, error)
}

// parseResponse is the MediaWiki action=parse envelope
type parseResponse struct {
	Parse struct {
		Text map[string]string `json:"text"`
	} `json:"parse"`
}

// Client fetches and parses the gamerule page
type Client struct {
	http   *resty.Client
	parser Parser
}

// NewClient creates a wiki client. An empty base URL falls back to the
// English wiki.
func NewClient(baseURL, userAgent string, parser Parser) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().SetBaseURL(baseURL)
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Client{http: client, parser: parser}
}

// GameRuleHistory fetches the gamerule article and runs the parser over its
// rendered HTML.
func (c *Client) GameRuleHistory(ctx context.Context) ([]models.GameRuleEvent, map[string]models.GameRuleMetadata, error) {
	var result parseResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action": "parse",
			"page":   gameRulePage,
			"format": "json",
			"prop":   "text",
			"origin": "*",
		}).
		SetResult(&result).
		Get("")
	if err != nil {
		return nil, nil, fmt.Errorf("fetching gamerule page: %w", err)
	}
	if resp.IsError() {
		return nil, nil, fmt.Errorf("wiki returned %s", resp.Status())
	}

	html := result.Parse.Text["*"]
	if html == "" {
		return nil, nil, ErrEmptyPage
	}

	events, metadata, err := c.parser.Parse(html)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing gamerule page: %w", err)
	}
	return events, metadata, nil
}
