// Package render converts canonical HTML content into the plaintext
// used for message bodies. It is a deliberately tolerant token-level
// rewriter, not a full parser: upstream HTML is frequently malformed
// and a best-effort pass over recognizable tags beats failing.
package render

import (
	"html"
	"regexp"
	"strings"
)

var (
	brRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
	pOpenRe    = regexp.MustCompile(`(?i)<p[^>]*>`)
	pCloseRe   = regexp.MustCompile(`(?i)</p>`)
	liOpenRe   = regexp.MustCompile(`(?i)<li[^>]*>`)
	liCloseRe  = regexp.MustCompile(`(?i)</li>`)
	listWrapRe = regexp.MustCompile(`(?i)</?(ul|ol)[^>]*>`)
	anchorRe   = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']+)["'][^>]*>(.*?)</a>`)
	imgRe      = regexp.MustCompile(`(?i)<img[^>]*>`)
	srcAttrRe  = regexp.MustCompile(`(?i)src=["']([^"']+)["']`)
	altAttrRe  = regexp.MustCompile(`(?i)alt=["']([^"']+)["']`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)

	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// Text renders HTML to plaintext with a fixed rewrite order. The
// result is stable: applying Text to already-plain output is a no-op.
func Text(content string) string {
	if content == "" {
		return ""
	}

	text := html.UnescapeString(content)
	text = brRe.ReplaceAllString(text, "\n")
	text = pCloseRe.ReplaceAllString(text, "\n\n")
	text = pOpenRe.ReplaceAllString(text, "")
	text = liOpenRe.ReplaceAllString(text, "• ")
	text = liCloseRe.ReplaceAllString(text, "\n")
	text = listWrapRe.ReplaceAllString(text, "")

	text = anchorRe.ReplaceAllStringFunc(text, func(match string) string {
		m := anchorRe.FindStringSubmatch(match)
		href := strings.TrimSpace(m[1])
		label := strings.TrimSpace(tagRe.ReplaceAllString(m[2], ""))
		if href != "" && label != "" {
			return label + " (" + href + ")"
		}
		if href != "" {
			return href
		}
		return label
	})

	text = imgRe.ReplaceAllStringFunc(text, func(tag string) string {
		src := ""
		if m := srcAttrRe.FindStringSubmatch(tag); m != nil {
			src = m[1]
		}
		alt := ""
		if m := altAttrRe.FindStringSubmatch(tag); m != nil {
			alt = m[1]
		}
		if alt != "" {
			return "[img: " + alt + " — " + src + "]"
		}
		return "[img: " + src + "]"
	})

	text = tagRe.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
