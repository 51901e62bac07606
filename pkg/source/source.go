// Package source implements per-publisher adapters for discovering and
// fetching game-news posts. Each adapter covers one platform and is
// registered statically; discovery failures stay local to one
// (game, category) pair and detail fetches are independent calls safe
// to run concurrently.
package source

import (
	"context"

	"gamenews/pkg/domain"
	"gamenews/pkg/transform"
)

// default language requested from localized upstreams
const defaultLanguage = "en-us"

// Adapter is the per-publisher capability interface
type Adapter interface {
	// Platform identifies the publisher this adapter covers
	Platform() domain.Platform
	// Targets enumerates the (game, category) pairs this adapter polls
	Targets() []domain.Target
	// Discover lists recent posts with enough metadata to classify change
	Discover(ctx context.Context, game domain.Game, category domain.Category) ([]domain.RawDiscoveryRecord, error)
	// FetchDetail retrieves the full content for one discovered post
	FetchDetail(ctx context.Context, game domain.Game, rawID string) (*domain.DetailRecord, error)
	// Rules returns the content-cleanup chain for this publisher's
	// quirks, empty for publishers with clean payloads
	Rules() []transform.Rule
}
