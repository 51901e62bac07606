package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"gamenews/pkg/domain"
	"gamenews/pkg/transform"
)

const hoyolabBase = "https://bbs-api-os.hoyolab.com/community/post/wapi/"

// HoyolabGame holds the per-game wire parameters for the HoYoLAB API
type HoyolabGame struct {
	GIDs       int
	Categories []domain.Category
}

// Hoyolab is the REST-polling adapter for the HoYoLAB community API.
// Listing and detail calls share a JSON envelope with a retcode; the
// content payloads carry the known upstream quirks handled by the full
// transform rule chain.
type Hoyolab struct {
	client   *Client
	games    map[domain.Game]HoyolabGame
	pageSize int
	baseURL  string
}

// NewHoyolab creates the HoYoLAB adapter for the configured games
func NewHoyolab(client *Client, games map[domain.Game]HoyolabGame, pageSize int) *Hoyolab {
	if pageSize == 0 {
		pageSize = 5
	}
	return &Hoyolab{client: client, games: games, pageSize: pageSize, baseURL: hoyolabBase}
}

// Platform implements Adapter
func (h *Hoyolab) Platform() domain.Platform { return domain.PlatformHoyolab }

// Rules implements Adapter, returning the full quirk chain
func (h *Hoyolab) Rules() []transform.Rule { return transform.Rules() }

// Targets implements Adapter
func (h *Hoyolab) Targets() []domain.Target {
	var targets []domain.Target
	for game, cfg := range h.games {
		for _, cat := range cfg.Categories {
			targets = append(targets, domain.Target{Game: game, Category: cat})
		}
	}
	return targets
}

// wire category codes of the listing endpoint
var hoyolabTypeByCategory = map[domain.Category]int{
	domain.CategoryNotices: 1,
	domain.CategoryEvents:  2,
	domain.CategoryInfo:    3,
}

// official_type codes of the detail endpoint
var hoyolabCategoryByType = map[int]domain.Category{
	1: domain.CategoryNotices,
	2: domain.CategoryEvents,
	3: domain.CategoryInfo,
}

// envelope is the common HoYoLAB response wrapper
type hoyolabEnvelope struct {
	Retcode int         `json:"retcode"`
	Message string      `json:"message"`
	Data    hoyolabData `json:"data"`
}

type hoyolabData struct {
	List []hoyolabListEntry `json:"list"`
	Post *hoyolabPostOuter  `json:"post"`
}

type hoyolabListEntry struct {
	Post           hoyolabPostInner `json:"post"`
	LastModifyTime int64            `json:"last_modify_time"`
}

type hoyolabPostOuter struct {
	Post           hoyolabPostInner `json:"post"`
	User           hoyolabUser      `json:"user"`
	Video          *hoyolabVideo    `json:"video"`
	LastModifyTime int64            `json:"last_modify_time"`
	CoverList      []hoyolabCover   `json:"cover_list"`
}

type hoyolabPostInner struct {
	PostID            stringOrNumber `json:"post_id"`
	Subject           string         `json:"subject"`
	Content           string         `json:"content"`
	StructuredContent string         `json:"structured_content"`
	Desc              string         `json:"desc"`
	OfficialType      int            `json:"official_type"`
	ViewType          int            `json:"view_type"`
	CreatedAt         int64          `json:"created_at"`
}

type hoyolabUser struct {
	Nickname string `json:"nickname"`
}

type hoyolabVideo struct {
	URL   string `json:"url"`
	Cover string `json:"cover"`
}

type hoyolabCover struct {
	URL string `json:"url"`
}

// view_type of native video posts
const hoyolabVideoViewType = 5

func (h *Hoyolab) get(ctx context.Context, endpoint string, params url.Values) (*hoyolabData, error) {
	headers := map[string]string{
		"Origin":         "https://www.hoyolab.com",
		"X-Rpc-Language": defaultLanguage,
	}
	var env hoyolabEnvelope
	reqURL := h.baseURL + endpoint + "?" + params.Encode()
	if err := h.client.GetJSON(ctx, reqURL, headers, &env); err != nil {
		return nil, fmt.Errorf("hoyolab %s: %w", endpoint, err)
	}
	if env.Retcode != 0 {
		return nil, logicalErr("hoyolab %s: retcode %d: %s", endpoint, env.Retcode, env.Message)
	}
	return &env.Data, nil
}

// Discover implements Adapter using the getNewsList endpoint
func (h *Hoyolab) Discover(ctx context.Context, game domain.Game, category domain.Category) ([]domain.RawDiscoveryRecord, error) {
	cfg, ok := h.games[game]
	if !ok {
		return nil, fmt.Errorf("hoyolab: unknown game %q", game)
	}
	newsType, ok := hoyolabTypeByCategory[category]
	if !ok {
		return nil, fmt.Errorf("hoyolab: unknown category %q", category)
	}

	params := url.Values{}
	params.Set("gids", strconv.Itoa(cfg.GIDs))
	params.Set("type", strconv.Itoa(newsType))
	params.Set("page_size", strconv.Itoa(h.pageSize))

	data, err := h.get(ctx, "getNewsList", params)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawDiscoveryRecord, 0, len(data.List))
	for _, entry := range data.List {
		records = append(records, domain.RawDiscoveryRecord{
			ID:           string(entry.Post.PostID),
			Created:      entry.Post.CreatedAt,
			LastModified: entry.LastModifyTime,
		})
	}
	return records, nil
}

// FetchDetail implements Adapter using the getPostFull endpoint
func (h *Hoyolab) FetchDetail(ctx context.Context, game domain.Game, rawID string) (*domain.DetailRecord, error) {
	cfg, ok := h.games[game]
	if !ok {
		return nil, fmt.Errorf("hoyolab: unknown game %q", game)
	}

	params := url.Values{}
	params.Set("gids", strconv.Itoa(cfg.GIDs))
	params.Set("post_id", rawID)

	data, err := h.get(ctx, "getPostFull", params)
	if err != nil {
		return nil, err
	}
	if data.Post == nil {
		return nil, formatErr("hoyolab getPostFull: no post in response for %s", rawID)
	}

	outer := data.Post
	inner := outer.Post

	category, ok := hoyolabCategoryByType[inner.OfficialType]
	if !ok {
		category = domain.CategoryInfo
	}

	detail := &domain.DetailRecord{
		ID:              string(inner.PostID),
		URL:             "https://www.hoyolab.com/article/" + string(inner.PostID),
		Title:           inner.Subject,
		Author:          outer.User.Nickname,
		Content:         inner.Content,
		StructuredDelta: inner.StructuredContent,
		Description:     inner.Desc,
		IsVideo:         inner.ViewType == hoyolabVideoViewType,
		Category:        category,
		CreatedAt:       inner.CreatedAt,
		UpdatedAt:       outer.LastModifyTime,
		Summary:         inner.Desc,
	}
	if outer.Video != nil {
		detail.Video = &domain.VideoPayload{URL: outer.Video.URL, Cover: outer.Video.Cover}
	}
	if len(outer.CoverList) > 0 {
		detail.Image = outer.CoverList[0].URL
	}
	return detail, nil
}
