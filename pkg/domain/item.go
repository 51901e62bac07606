package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Platform identifies an upstream publisher
type Platform string

// known platforms
const (
	PlatformHoyolab     Platform = "hoyolab"
	PlatformGryphline   Platform = "gryphline"
	PlatformShadowverse Platform = "shadowverse"
	PlatformRSS         Platform = "rss"
)

// Game identifies a tracked game
type Game string

// tracked games
const (
	GameGenshin     Game = "genshin"
	GameStarRail    Game = "starrail"
	GameHonkai3rd   Game = "honkai3rd"
	GameZZZ         Game = "zzz"
	GameEndfield    Game = "endfield"
	GameShadowverse Game = "shadowverse"
)

// Category is the canonical post category across all platforms
type Category string

// canonical categories
const (
	CategoryNotices Category = "notices"
	CategoryEvents  Category = "events"
	CategoryInfo    Category = "info"
	CategoryNews    Category = "news"
)

// Target is one (game, category) pair an adapter polls
type Target struct {
	Game     Game
	Category Category
}

// FeedItem is the unified normalized representation of one article/post
// across all sources. Key() is globally unique and stable for the life
// of the item.
type FeedItem struct {
	ID          string
	Platform    Platform
	Game        Game
	URL         string
	Title       string
	Author      string
	Content     string // canonical HTML
	Category    Category
	Published   time.Time
	Updated     *time.Time
	Image       string
	Summary     string
	EffectiveTS int64
	NeedsReview bool // set when a transform rule fell back to raw content
}

// Key returns the composite identity "{platform}:{game}:{id}"
func (i *FeedItem) Key() string {
	return CompositeKey(i.Platform, i.Game, i.ID)
}

// Hash returns a stable digest of the deliverable fields, used to
// suppress re-sending identical content
func (i *FeedItem) Hash() string {
	updated := ""
	if i.Updated != nil {
		updated = i.Updated.UTC().Format(time.RFC3339)
	}
	payload := fmt.Sprintf("%s|%s|%s|%s", i.Title, i.URL, i.Content, updated)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// CompositeKey builds the state-store key for a platform/game/id triple
func CompositeKey(platform Platform, game Game, id string) string {
	return fmt.Sprintf("%s:%s:%s", platform, game, id)
}

// RawDiscoveryRecord is the per-cycle listing summary used for change
// detection, discarded after the cycle
type RawDiscoveryRecord struct {
	ID           string
	Created      int64 // epoch seconds
	LastModified int64 // epoch seconds
}

// EffectiveTS is the timestamp used for change detection
func (r RawDiscoveryRecord) EffectiveTS() int64 {
	if r.LastModified > r.Created {
		return r.LastModified
	}
	return r.Created
}

// VideoPayload describes a native video attached to a post
type VideoPayload struct {
	URL   string
	Cover string
}

// DetailRecord is the full content fetched for an item that needs an
// update, consumed immediately by the transformer and not retained
type DetailRecord struct {
	ID              string
	URL             string
	Title           string
	Author          string
	Content         string
	StructuredDelta string // raw structured-content payload, if any
	Description     string
	IsVideo         bool
	Video           *VideoPayload
	Category        Category
	CreatedAt       int64
	UpdatedAt       int64
	Image           string
	Summary         string
}

// StateRecord is the persisted per-item delivery state
type StateRecord struct {
	LastModified int64  `json:"last_modified"`
	LastSentHash string `json:"last_sent_hash"`
}
