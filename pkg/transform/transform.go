// Package transform applies ordered content-cleanup rules to raw post
// content fetched from upstream publishers. Rules are pure rewrites; a
// rule that cannot parse its input falls back to the rule's input and
// flags the record for review instead of failing the pipeline.
package transform

import (
	"github.com/go-pkgz/lgr"

	"gamenews/pkg/domain"
)

// Rule is a single ordered rewrite applied to a detail record's content
type Rule interface {
	Name() string
	Apply(content string, d *domain.DetailRecord) (string, error)
}

// Result carries the transformed content and whether any rule degraded
type Result struct {
	Content     string
	NeedsReview bool
}

// Apply runs rules in order over the record's content. An adapter with
// no quirks passes an empty rule list and gets the identity transform.
func Apply(rules []Rule, d *domain.DetailRecord) Result {
	res := Result{Content: d.Content}
	for _, rule := range rules {
		out, err := rule.Apply(res.Content, d)
		if err != nil {
			lgr.Printf("[WARN] transform rule %s failed for post %s, keeping original content: %v", rule.Name(), d.ID, err)
			res.NeedsReview = true
			continue
		}
		res.Content = out
	}
	return res
}
