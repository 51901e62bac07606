package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
http:
  timeout: 10s
  retry_attempts: 5

run:
  max_workers: 8
  send_pacing: 2s

state:
  path: /var/lib/gamenews/state.json

delivery:
  webhook_url: https://discord.com/api/webhooks/1/abc

platforms:
  hoyolab:
    games:
      genshin:
        gids: 2
        categories: [notices, events]
      zzz:
        gids: 8
        categories: [info]
  gryphline:
    games:
      endfield:
        tabs: [notices, news]
  shadowverse:
    enabled: true
  rss:
    feeds:
      - game: genshin
        url: https://news.example.com/feed.xml

colors:
  genshin: 0x00DCDC
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 5, cfg.HTTP.RetryAttempts)
	assert.Equal(t, 8, cfg.Run.MaxWorkers)
	assert.Equal(t, 2*time.Second, cfg.Run.SendPacing)
	assert.Equal(t, "/var/lib/gamenews/state.json", cfg.State.Path)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Delivery.WebhookURL)

	require.Contains(t, cfg.Platforms.Hoyolab.Games, "genshin")
	assert.Equal(t, 2, cfg.Platforms.Hoyolab.Games["genshin"].GIDs)
	assert.Equal(t, []string{"notices", "events"}, cfg.Platforms.Hoyolab.Games["genshin"].Categories)
	assert.Equal(t, []string{"notices", "news"}, cfg.Platforms.Gryphline.Games["endfield"].Tabs)
	assert.True(t, cfg.Platforms.Shadowverse.Enabled)
	require.Len(t, cfg.Platforms.RSS.Feeds, 1)
	assert.Equal(t, "genshin", cfg.Platforms.RSS.Feeds[0].Game)
	assert.Equal(t, 0x00DCDC, cfg.Colors["genshin"])
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.HTTP.RetryDelay)
	assert.Equal(t, 5*time.Second, cfg.HTTP.RetryMaxDelay)
	assert.Equal(t, 4, cfg.Run.MaxWorkers)
	assert.Equal(t, 10*time.Minute, cfg.Run.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Run.SendPacing)
	assert.Equal(t, 5, cfg.Run.CategorySize)
	assert.Equal(t, "news_state.json", cfg.State.Path)
	assert.Equal(t, 30*time.Second, cfg.Delivery.Timeout)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_URL", "https://discord.com/api/webhooks/2/def")
	cfg, err := Load(writeConfig(t, `
delivery:
  webhook_url: ${TEST_WEBHOOK_URL}
`))
	require.NoError(t, err)
	assert.Equal(t, "https://discord.com/api/webhooks/2/def", cfg.Delivery.WebhookURL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"tiny http timeout", "http:\n  timeout: 500ms\n", "http.timeout"},
		{"missing gids", `
platforms:
  hoyolab:
    games:
      genshin:
        categories: [notices]
`, "gids is required"},
		{"no categories", `
platforms:
  hoyolab:
    games:
      genshin:
        gids: 2
`, "at least one category"},
		{"unknown category", `
platforms:
  hoyolab:
    games:
      genshin:
        gids: 2
        categories: [announcements]
`, `unknown category "announcements"`},
		{"unknown tab", `
platforms:
  gryphline:
    games:
      endfield:
        tabs: [blog]
`, `unknown tab "blog"`},
		{"rss feed without url", `
platforms:
  rss:
    feeds:
      - game: genshin
`, "url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "a: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
