package transform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gamenews/pkg/domain"
)

// Rules returns the full ordered rule chain for adapters with the known
// upstream quirks: locale-code content replaced from the structured
// delta, native-video posts rewritten to an embedded player block,
// leading empty paragraphs stripped and private CDN hosts made public.
func Rules() []Rule {
	return []Rule{
		structuredFallback{},
		videoOverride{},
		stripLeadingEmptyParagraph{},
		rewritePrivateLinks{},
	}
}

var localeCodeRe = regexp.MustCompile(`^[a-z]{2}-[a-z]{2}$`)

// structuredFallback handles the upstream bug where the content field
// holds only a locale code (e.g. "en-us") and the real content lives in
// the structured delta. The delta is a JSON array of insert operations.
type structuredFallback struct{}

func (structuredFallback) Name() string { return "structured-fallback" }

func (structuredFallback) Apply(content string, d *domain.DetailRecord) (string, error) {
	if !localeCodeRe.MatchString(strings.TrimSpace(content)) {
		return content, nil
	}
	rebuilt, err := parseStructuredDelta(d.StructuredDelta)
	if err != nil {
		return content, fmt.Errorf("parse structured delta: %w", err)
	}
	return rebuilt, nil
}

// deltaOp is one insert operation of the structured delta. The insert
// is either a plain string or an image/video reference object.
type deltaOp struct {
	Insert     json.RawMessage `json:"insert"`
	Attributes struct {
		Link   string `json:"link"`
		Bold   bool   `json:"bold"`
		Italic bool   `json:"italic"`
	} `json:"attributes"`
}

func parseStructuredDelta(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty structured delta")
	}
	// literal and escaped newlines both become explicit line breaks
	// before the delta is parsed as JSON
	prepared := strings.ReplaceAll(raw, `\n`, "<br>")
	prepared = strings.ReplaceAll(prepared, "\n", "<br>")

	var ops []deltaOp
	if err := json.Unmarshal([]byte(prepared), &ops); err != nil {
		return "", fmt.Errorf("decode insert operations: %w", err)
	}

	var b strings.Builder
	for _, op := range ops {
		var text string
		if err := json.Unmarshal(op.Insert, &text); err == nil {
			switch {
			case op.Attributes.Link != "":
				fmt.Fprintf(&b, "<p><a href=%q>%s</a></p>", op.Attributes.Link, text)
			case op.Attributes.Bold:
				fmt.Fprintf(&b, "<p><strong>%s</strong></p>", text)
			case op.Attributes.Italic:
				fmt.Fprintf(&b, "<p><em>%s</em></p>", text)
			default:
				fmt.Fprintf(&b, "<p>%s</p>", text)
			}
			continue
		}
		var ref struct {
			Image string `json:"image"`
			Video string `json:"video"`
		}
		if err := json.Unmarshal(op.Insert, &ref); err != nil {
			continue // unknown insert shape, drop the fragment
		}
		if ref.Image != "" {
			fmt.Fprintf(&b, "<img src=%q>", ref.Image)
		}
		if ref.Video != "" {
			fmt.Fprintf(&b, "<iframe src=%q></iframe>", ref.Video)
		}
	}
	return b.String(), nil
}

// videoOverride replaces the whole content of native video posts with a
// synthesized player block, superseding any earlier rule's output.
type videoOverride struct{}

func (videoOverride) Name() string { return "video-override" }

func (videoOverride) Apply(content string, d *domain.DetailRecord) (string, error) {
	if !d.IsVideo || d.Video == nil {
		return content, nil
	}
	return fmt.Sprintf(
		"<video src=%q poster=%q controls playsinline>Watch the video here: %s</video><p>%s</p>",
		d.Video.URL, d.Video.Cover, d.Video.URL, d.Description), nil
}

// empty paragraph markers the upstream editor likes to prepend
var emptyParagraphPrefixes = []string{"<p></p>", "<p>&nbsp;</p>", "<p><br></p>"}

// stripLeadingEmptyParagraph removes a single leading empty paragraph,
// everything up to and including the first closing tag
type stripLeadingEmptyParagraph struct{}

func (stripLeadingEmptyParagraph) Name() string { return "strip-leading-empty-paragraph" }

func (stripLeadingEmptyParagraph) Apply(content string, _ *domain.DetailRecord) (string, error) {
	for _, prefix := range emptyParagraphPrefixes {
		if strings.HasPrefix(content, prefix) {
			_, after, found := strings.Cut(content, "</p>")
			if found {
				return after, nil
			}
			return content, nil
		}
	}
	return content, nil
}

const (
	privateCDNHost = "hoyolab-upload-private"
	publicCDNHost  = "upload-os-bbs"
)

// rewritePrivateLinks swaps the private CDN host for its public mirror,
// a plain substring replace that is idempotent by construction
type rewritePrivateLinks struct{}

func (rewritePrivateLinks) Name() string { return "rewrite-private-links" }

func (rewritePrivateLinks) Apply(content string, _ *domain.DetailRecord) (string, error) {
	return strings.ReplaceAll(content, privateCDNHost, publicCDNHost), nil
}
