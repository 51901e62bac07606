// Package notify builds size-bounded notification payloads from
// normalized items and delivers them to a webhook sink.
package notify

import (
	"strings"
	"time"
	"unicode/utf8"

	"gamenews/pkg/domain"
)

const (
	titleLimit       = 256
	descriptionLimit = 4096
	// ceiling across all textual embed fields accepted by the sink
	embedTotalLimit = 6000
	ellipsis        = "..."

	defaultColor = 0x888888
)

// Embed is the structured notification payload
type Embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Footer      EmbedFooter  `json:"footer"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
}

// EmbedFooter is the embed footer line
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedImage references the thumbnail image
type EmbedImage struct {
	URL string `json:"url"`
}

// EmbedAuthor names the post author
type EmbedAuthor struct {
	Name string `json:"name"`
}

// Builder turns normalized items into embeds, coloring them by game
type Builder struct {
	colors map[domain.Game]int
}

// NewBuilder creates a payload builder with the per-game color map
func NewBuilder(colors map[domain.Game]int) *Builder {
	return &Builder{colors: colors}
}

// Build creates the embed for one item from its rendered plaintext
func (b *Builder) Build(item *domain.FeedItem, text string) *Embed {
	title := item.Title
	if title == "" {
		title = item.URL
	}

	color, ok := b.colors[item.Game]
	if !ok {
		color = defaultColor
	}

	e := &Embed{
		Title:       truncateTitle(title),
		URL:         item.URL,
		Description: truncateDescription(text, item.URL, descriptionLimit),
		Color:       color,
		Footer:      EmbedFooter{Text: string(item.Category) + " · " + string(item.Game)},
	}
	if !item.Published.IsZero() {
		e.Timestamp = item.Published.UTC().Format(time.RFC3339)
	}
	if item.Image != "" {
		e.Thumbnail = &EmbedImage{URL: item.Image}
	}
	if item.Author != "" {
		e.Author = &EmbedAuthor{Name: truncateTitle(item.Author)}
	}

	// the description is the largest variable field, trim it first if
	// the aggregate payload still exceeds the sink's ceiling
	if over := e.totalLength() - embedTotalLimit; over > 0 {
		e.Description = truncateDescription(e.Description, item.URL, len(e.Description)-over)
	}
	return e
}

func (e *Embed) totalLength() int {
	total := len(e.Title) + len(e.Description) + len(e.Footer.Text)
	if e.Author != nil {
		total += len(e.Author.Name)
	}
	return total
}

// truncateTitle hard-caps the title, reserving room for the ellipsis
func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= titleLimit {
		return s
	}
	return string(runes[:titleLimit-len(ellipsis)]) + ellipsis
}

// truncateDescription soft-caps the text near limit, cutting at a word
// boundary and appending a read-more link when a cut occurs
func truncateDescription(text, url string, limit int) string {
	if len(text) <= limit {
		return text
	}
	suffix := "\n\nRead more: " + url
	maxLen := limit - len(suffix)
	if maxLen <= 0 {
		return cutBytes(text, limit-1)
	}
	cut := cutBytes(text, maxLen)
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + suffix
}

// cutBytes truncates s to at most n bytes, backing up to the previous
// rune boundary so the result is always valid UTF-8
func cutBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
