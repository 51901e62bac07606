package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmcdole/gofeed"

	"gamenews/pkg/domain"
	"gamenews/pkg/transform"
)

// RSSFeed configures one plain RSS/Atom feed for a game
type RSSFeed struct {
	Game domain.Game
	URL  string
}

// RSS is the adapter for publishers that expose an ordinary RSS/Atom
// feed. The feed document already carries full content, so FetchDetail
// serves from the entries cached during discovery instead of issuing a
// second request.
type RSS struct {
	client *Client
	feeds  map[domain.Game]string

	mu    sync.Mutex
	cache map[string]*domain.DetailRecord // keyed by composite of game and guid
}

// NewRSS creates the RSS adapter for the configured feeds
func NewRSS(client *Client, feeds []RSSFeed) *RSS {
	byGame := make(map[domain.Game]string, len(feeds))
	for _, f := range feeds {
		byGame[f.Game] = f.URL
	}
	return &RSS{
		client: client,
		feeds:  byGame,
		cache:  make(map[string]*domain.DetailRecord),
	}
}

// Platform implements Adapter
func (r *RSS) Platform() domain.Platform { return domain.PlatformRSS }

// Rules implements Adapter; feed content is used as-is
func (r *RSS) Rules() []transform.Rule { return nil }

// Targets implements Adapter
func (r *RSS) Targets() []domain.Target {
	var targets []domain.Target
	for game := range r.feeds {
		targets = append(targets, domain.Target{Game: game, Category: domain.CategoryNews})
	}
	return targets
}

// Discover implements Adapter by fetching and parsing the whole feed
func (r *RSS) Discover(ctx context.Context, game domain.Game, _ domain.Category) ([]domain.RawDiscoveryRecord, error) {
	feedURL, ok := r.feeds[game]
	if !ok {
		return nil, fmt.Errorf("rss: no feed configured for game %q", game)
	}

	body, err := r.client.GetText(ctx, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rss feed %s: %w", feedURL, err)
	}

	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, formatErr("parse feed %s: %w", feedURL, err)
	}

	records := make([]domain.RawDiscoveryRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		rec := domain.RawDiscoveryRecord{ID: guid}
		if item.PublishedParsed != nil {
			rec.Created = item.PublishedParsed.UTC().Unix()
		}
		if item.UpdatedParsed != nil {
			rec.LastModified = item.UpdatedParsed.UTC().Unix()
		}
		records = append(records, rec)
		r.cacheDetail(game, guid, item)
	}
	return records, nil
}

// FetchDetail implements Adapter, serving from the discovery cache
func (r *RSS) FetchDetail(_ context.Context, game domain.Game, rawID string) (*domain.DetailRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	detail, ok := r.cache[cacheKey(game, rawID)]
	if !ok {
		return nil, formatErr("rss: no cached entry for %s", rawID)
	}
	return detail, nil
}

func (r *RSS) cacheDetail(game domain.Game, guid string, item *gofeed.Item) {
	content := item.Content
	if content == "" {
		content = item.Description
	}
	detail := &domain.DetailRecord{
		ID:       guid,
		URL:      item.Link,
		Title:    item.Title,
		Content:  content,
		Category: domain.CategoryNews,
		Summary:  item.Description,
	}
	if item.Author != nil {
		detail.Author = item.Author.Name
	}
	if item.PublishedParsed != nil {
		detail.CreatedAt = item.PublishedParsed.UTC().Unix()
	}
	if item.UpdatedParsed != nil {
		detail.UpdatedAt = item.UpdatedParsed.UTC().Unix()
	}
	if item.Image != nil {
		detail.Image = item.Image.URL
	}

	r.mu.Lock()
	r.cache[cacheKey(game, guid)] = detail
	r.mu.Unlock()
}

func cacheKey(game domain.Game, guid string) string {
	return string(game) + "|" + guid
}
