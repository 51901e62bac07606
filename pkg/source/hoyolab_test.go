package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamenews/pkg/domain"
)

func newTestHoyolab(baseURL string) *Hoyolab {
	h := NewHoyolab(testClient(), map[domain.Game]HoyolabGame{
		domain.GameGenshin: {GIDs: 2, Categories: []domain.Category{domain.CategoryNotices, domain.CategoryEvents}},
	}, 5)
	h.baseURL = baseURL + "/"
	return h
}

func TestHoyolab_Discover(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getNewsList", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("gids"))
		assert.Equal(t, "1", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("page_size"))
		assert.Equal(t, "https://www.hoyolab.com", r.Header.Get("Origin"))
		assert.Equal(t, "en-us", r.Header.Get("X-Rpc-Language"))
		_, _ = w.Write([]byte(`{"retcode": 0, "data": {"list": [
			{"post": {"post_id": "101", "created_at": 1000}, "last_modify_time": 1500},
			{"post": {"post_id": 102, "created_at": 2000}, "last_modify_time": 0}
		]}}`))
	}))
	defer ts.Close()

	records, err := newTestHoyolab(ts.URL).Discover(context.Background(), domain.GameGenshin, domain.CategoryNotices)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "101", records[0].ID)
	assert.Equal(t, int64(1500), records[0].EffectiveTS())
	assert.Equal(t, "102", records[1].ID, "numeric post ids are accepted")
	assert.Equal(t, int64(2000), records[1].EffectiveTS())
}

func TestHoyolab_DiscoverRetcodeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"retcode": 1001, "message": "invalid gids", "data": {}}`))
	}))
	defer ts.Close()

	_, err := newTestHoyolab(ts.URL).Discover(context.Background(), domain.GameGenshin, domain.CategoryNotices)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLogical))
	assert.Contains(t, err.Error(), "retcode 1001")
}

func TestHoyolab_DiscoverUnknownTuple(t *testing.T) {
	h := newTestHoyolab("http://unused.invalid")

	_, err := h.Discover(context.Background(), domain.GameZZZ, domain.CategoryNotices)
	assert.ErrorContains(t, err, "unknown game")

	_, err = h.Discover(context.Background(), domain.GameGenshin, domain.CategoryNews)
	assert.ErrorContains(t, err, "unknown category")
}

func TestHoyolab_FetchDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getPostFull", r.URL.Path)
		assert.Equal(t, "101", r.URL.Query().Get("post_id"))
		_, _ = w.Write([]byte(`{"retcode": 0, "data": {"post": {
			"post": {
				"post_id": "101",
				"subject": "Version 5.0 Notice",
				"content": "<p>body</p>",
				"structured_content": "[{\"insert\":\"body\"}]",
				"desc": "short summary",
				"official_type": 2,
				"view_type": 1,
				"created_at": 1000
			},
			"user": {"nickname": "Paimon"},
			"last_modify_time": 1500,
			"cover_list": [{"url": "https://img.example.com/cover.png"}]
		}}}`))
	}))
	defer ts.Close()

	detail, err := newTestHoyolab(ts.URL).FetchDetail(context.Background(), domain.GameGenshin, "101")
	require.NoError(t, err)

	assert.Equal(t, "101", detail.ID)
	assert.Equal(t, "https://www.hoyolab.com/article/101", detail.URL)
	assert.Equal(t, "Version 5.0 Notice", detail.Title)
	assert.Equal(t, "Paimon", detail.Author)
	assert.Equal(t, "<p>body</p>", detail.Content)
	assert.Equal(t, `[{"insert":"body"}]`, detail.StructuredDelta)
	assert.Equal(t, domain.CategoryEvents, detail.Category)
	assert.False(t, detail.IsVideo)
	assert.Nil(t, detail.Video)
	assert.Equal(t, int64(1000), detail.CreatedAt)
	assert.Equal(t, int64(1500), detail.UpdatedAt)
	assert.Equal(t, "https://img.example.com/cover.png", detail.Image)
	assert.Equal(t, "short summary", detail.Summary)
}

func TestHoyolab_FetchDetailVideoPost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"retcode": 0, "data": {"post": {
			"post": {"post_id": 202, "subject": "Trailer", "view_type": 5, "official_type": 9},
			"video": {"url": "https://v.example.com/1.mp4", "cover": "https://v.example.com/1.jpg"}
		}}}`))
	}))
	defer ts.Close()

	detail, err := newTestHoyolab(ts.URL).FetchDetail(context.Background(), domain.GameGenshin, "202")
	require.NoError(t, err)

	assert.True(t, detail.IsVideo)
	require.NotNil(t, detail.Video)
	assert.Equal(t, "https://v.example.com/1.mp4", detail.Video.URL)
	assert.Equal(t, domain.CategoryInfo, detail.Category, "unknown official_type defaults to info")
}

func TestHoyolab_FetchDetailMissingPost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"retcode": 0, "data": {}}`))
	}))
	defer ts.Close()

	_, err := newTestHoyolab(ts.URL).FetchDetail(context.Background(), domain.GameGenshin, "303")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestHoyolab_Targets(t *testing.T) {
	h := NewHoyolab(testClient(), map[domain.Game]HoyolabGame{
		domain.GameGenshin: {GIDs: 2, Categories: []domain.Category{domain.CategoryNotices, domain.CategoryEvents}},
		domain.GameZZZ:     {GIDs: 8, Categories: []domain.Category{domain.CategoryInfo}},
	}, 0)

	targets := h.Targets()
	assert.Len(t, targets, 3)
	assert.Contains(t, targets, domain.Target{Game: domain.GameZZZ, Category: domain.CategoryInfo})
	assert.Equal(t, domain.PlatformHoyolab, h.Platform())
	assert.NotEmpty(t, h.Rules())
}
