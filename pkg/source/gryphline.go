package source

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gamenews/pkg/domain"
	"gamenews/pkg/transform"
)

const gryphlineBase = "https://endfield.gryphline.com"

// GryphlineGame holds the per-game listing configuration: which news
// tabs map into the tracked categories
type GryphlineGame struct {
	Tabs []domain.Category
}

// Gryphline is the rendered-payload adapter for the Gryphline news
// site. The site is a server-rendered next.js app: listing and article
// data are embedded in the HTML as framework push payloads, so this
// adapter extracts serialized JSON fragments instead of calling an API.
// Inherently more brittle than a REST upstream; parse failures surface
// as format errors and skip the item.
type Gryphline struct {
	client  *Client
	games   map[domain.Game]GryphlineGame
	baseURL string
}

// NewGryphline creates the Gryphline adapter for the configured games
func NewGryphline(client *Client, games map[domain.Game]GryphlineGame) *Gryphline {
	return &Gryphline{client: client, games: games, baseURL: gryphlineBase}
}

// Platform implements Adapter
func (g *Gryphline) Platform() domain.Platform { return domain.PlatformGryphline }

// Rules implements Adapter; the rendered payload needs no cleanup
func (g *Gryphline) Rules() []transform.Rule { return nil }

// Targets implements Adapter
func (g *Gryphline) Targets() []domain.Target {
	var targets []domain.Target
	for game, cfg := range g.games {
		for _, tab := range cfg.Tabs {
			targets = append(targets, domain.Target{Game: game, Category: tab})
		}
	}
	return targets
}

type gryphlineBulletin struct {
	CID         stringOrNumber `json:"cid"`
	Title       string         `json:"title"`
	Tab         string         `json:"tab"`
	DisplayTime int64          `json:"displayTime"`
}

type gryphlineArticle struct {
	CID         stringOrNumber `json:"cid"`
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	Data        string         `json:"data"`
	Tab         string         `json:"tab"`
	DisplayTime int64          `json:"displayTime"`
	Cover       string         `json:"cover"`
	Brief       string         `json:"brief"`
}

// Discover implements Adapter by scraping the rendered news listing
func (g *Gryphline) Discover(ctx context.Context, game domain.Game, category domain.Category) ([]domain.RawDiscoveryRecord, error) {
	if _, ok := g.games[game]; !ok {
		return nil, fmt.Errorf("gryphline: unknown game %q", game)
	}

	pageURL := fmt.Sprintf("%s/%s/news", g.baseURL, defaultLanguage)
	page, err := g.client.GetText(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gryphline listing: %w", err)
	}

	bulletins, err := extractBulletins(page)
	if err != nil {
		return nil, formatErr("gryphline listing: %w", err)
	}

	var records []domain.RawDiscoveryRecord
	for _, b := range bulletins {
		if b.Tab != string(category) {
			continue
		}
		records = append(records, domain.RawDiscoveryRecord{
			ID:           string(b.CID),
			Created:      b.DisplayTime,
			LastModified: b.DisplayTime,
		})
	}
	return records, nil
}

// FetchDetail implements Adapter by scraping the rendered article page
func (g *Gryphline) FetchDetail(ctx context.Context, game domain.Game, rawID string) (*domain.DetailRecord, error) {
	articleURL := fmt.Sprintf("%s/%s/news/%s", g.baseURL, defaultLanguage, rawID)
	page, err := g.client.GetText(ctx, articleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gryphline detail %s: %w", rawID, err)
	}

	article, err := extractArticle(page, rawID)
	if err != nil {
		return nil, formatErr("gryphline detail %s: %w", rawID, err)
	}

	author := article.Author
	if author == "" {
		author = "Arknights: Endfield"
	}
	category := domain.Category(article.Tab)
	if category == "" {
		category = domain.CategoryNews
	}

	return &domain.DetailRecord{
		ID:          rawID,
		URL:         articleURL,
		Title:       article.Title,
		Author:      author,
		Content:     article.Data,
		Category:    category,
		CreatedAt:   article.DisplayTime,
		UpdatedAt:   article.DisplayTime,
		Image:       article.Cover,
		Summary:     article.Brief,
		Description: article.Brief,
	}, nil
}

var pushPayloadRe = regexp.MustCompile(`self\.__next_f\.push\((\[[^\n]+?\])\)`)

// extractPushPayloads returns the raw framework push arrays embedded in
// the rendered page
func extractPushPayloads(page string) []string {
	var payloads []string
	for _, m := range pushPayloadRe.FindAllStringSubmatch(page, -1) {
		payloads = append(payloads, m[1])
	}
	return payloads
}

// findJSONObject locates the balanced JSON object surrounding the first
// occurrence of needle in s
func findJSONObject(s, needle string) (string, bool) {
	idx := strings.Index(s, needle)
	if idx < 0 {
		return "", false
	}
	start := strings.LastIndex(s[:idx], "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// extractJSONBlocks decodes every push payload and returns the raw JSON
// objects containing the needle found inside its string parts
func extractJSONBlocks(page, needle string) []string {
	var blocks []string
	for _, payload := range extractPushPayloads(page) {
		var parts []any
		if err := json.Unmarshal([]byte(payload), &parts); err != nil {
			continue
		}
		for _, part := range parts {
			str, ok := part.(string)
			if !ok || !strings.Contains(str, needle) {
				continue
			}
			if obj, found := findJSONObject(str, needle); found {
				blocks = append(blocks, obj)
			}
		}
	}
	return blocks
}

func extractBulletins(page string) ([]gryphlineBulletin, error) {
	for _, block := range extractJSONBlocks(page, `"bulletins"`) {
		var wrapper struct {
			Bulletins []gryphlineBulletin `json:"bulletins"`
		}
		if err := json.Unmarshal([]byte(block), &wrapper); err != nil {
			continue
		}
		if wrapper.Bulletins != nil {
			return wrapper.Bulletins, nil
		}
	}
	return nil, fmt.Errorf("no bulletins payload in page")
}

func extractArticle(page, cid string) (*gryphlineArticle, error) {
	for _, block := range extractJSONBlocks(page, `"data"`) {
		var article gryphlineArticle
		if err := json.Unmarshal([]byte(block), &article); err != nil {
			continue
		}
		if string(article.CID) == cid && article.Data != "" {
			return &article, nil
		}
	}
	return nil, fmt.Errorf("no article payload for cid %s", cid)
}
