// Package pipeline orchestrates one aggregation run: discover posts
// per (platform, game, category), classify them against stored state,
// fetch and transform details for new or modified items, deliver
// notification payloads and commit state in one atomic step at the end
// of the cycle.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"gamenews/pkg/domain"
	"gamenews/pkg/notify"
	"gamenews/pkg/render"
	"gamenews/pkg/source"
	"gamenews/pkg/transform"
)

// Store is the persisted dedup state consumed by the runner
type Store interface {
	Get(key string) (domain.StateRecord, bool)
	Put(key string, rec domain.StateRecord)
	Len() int
	Save() error
}

// Options are the per-run filters and limits
type Options struct {
	OnlyGame   domain.Game   // restrict the run to a single game
	SinceHours int           // only consider items updated within the window
	MaxWorkers int           // bound on concurrent discovery and detail fetches
	SendPacing time.Duration // delay between deliveries
	RunTimeout time.Duration // run-level deadline, zero for none
}

// Summary is the cycle outcome reported after a run
type Summary struct {
	Discovered int
	New        int
	Modified   int
	Unchanged  int
	Skipped    int
	Failed     int
	Delivered  int
	Baseline   bool
}

// Runner sequences the aggregation pipeline for all registered adapters
type Runner struct {
	adapters []source.Adapter
	store    Store
	sink     notify.Sink
	builder  *notify.Builder
	opts     Options

	now func() time.Time
}

// NewRunner creates a runner over the registered adapters
func NewRunner(adapters []source.Adapter, store Store, sink notify.Sink, builder *notify.Builder, opts Options) *Runner {
	if opts.MaxWorkers == 0 {
		opts.MaxWorkers = 4
	}
	return &Runner{
		adapters: adapters,
		store:    store,
		sink:     sink,
		builder:  builder,
		opts:     opts,
		now:      time.Now,
	}
}

// discovered ties a raw record to the adapter and tuple that found it
type discovered struct {
	adapter  source.Adapter
	game     domain.Game
	category domain.Category
	rec      domain.RawDiscoveryRecord
}

func (d discovered) key() string {
	return domain.CompositeKey(d.adapter.Platform(), d.game, d.rec.ID)
}

// Run executes one full cycle. Per-item and per-tuple failures are
// contained; only a state persistence failure is returned as an error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RunTimeout)
		defer cancel()
	}

	summary := Summary{Baseline: r.store.Len() == 0}
	if summary.Baseline {
		lgr.Printf("[INFO] state store is empty, running in baseline mode, no deliveries will be made")
	}

	batch := r.discoverAll(ctx, &summary)
	summary.Discovered = len(batch)

	toFetch := r.classifyBatch(batch, &summary)
	items := r.fetchAll(ctx, toFetch, &summary)

	if summary.Baseline {
		for _, d := range batch {
			r.store.Put(d.key(), domain.StateRecord{LastModified: d.rec.EffectiveTS()})
		}
	} else {
		r.deliverAll(ctx, items, &summary)
	}

	if err := r.store.Save(); err != nil {
		return summary, fmt.Errorf("commit state: %w", err)
	}

	lgr.Printf("[INFO] cycle done: %d discovered, %d new, %d modified, %d unchanged, %d skipped, %d failed, %d delivered",
		summary.Discovered, summary.New, summary.Modified, summary.Unchanged, summary.Skipped, summary.Failed, summary.Delivered)
	return summary, nil
}

// discoverAll runs discovery for every enabled tuple concurrently,
// isolating failures to the (game, category) pair that caused them.
// Duplicate posts listed under several categories collapse to a single
// record keeping the freshest timestamps.
func (r *Runner) discoverAll(ctx context.Context, summary *Summary) []discovered {
	var mu sync.Mutex
	byKey := make(map[string]discovered)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxWorkers)

	for _, adapter := range r.adapters {
		for _, target := range adapter.Targets() {
			if r.opts.OnlyGame != "" && target.Game != r.opts.OnlyGame {
				continue
			}
			g.Go(func() error {
				recs, err := adapter.Discover(ctx, target.Game, target.Category)
				if err != nil {
					lgr.Printf("[WARN] discovery failed for %s/%s/%s: %v", adapter.Platform(), target.Game, target.Category, err)
					mu.Lock()
					summary.Failed++
					mu.Unlock()
					return nil
				}
				mu.Lock()
				for _, rec := range recs {
					d := discovered{adapter: adapter, game: target.Game, category: target.Category, rec: rec}
					if prev, ok := byKey[d.key()]; ok && prev.rec.EffectiveTS() >= rec.EffectiveTS() {
						continue
					}
					byKey[d.key()] = d
				}
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait() // discovery goroutines never return errors

	batch := make([]discovered, 0, len(byKey))
	for _, d := range byKey {
		batch = append(batch, d)
	}
	return batch
}

// classifyBatch applies the since-hours window and the diff engine,
// returning the records that need a detail fetch
func (r *Runner) classifyBatch(batch []discovered, summary *Summary) []discovered {
	var cutoff int64
	if r.opts.SinceHours > 0 {
		cutoff = r.now().Add(-time.Duration(r.opts.SinceHours) * time.Hour).Unix()
	}

	var toFetch []discovered
	for _, d := range batch {
		if cutoff > 0 && d.rec.EffectiveTS() < cutoff {
			summary.Skipped++
			continue
		}

		var stored *domain.StateRecord
		if rec, ok := r.store.Get(d.key()); ok {
			stored = &rec
		}

		switch Classify(d.rec, stored) {
		case New:
			summary.New++
			toFetch = append(toFetch, d)
		case Modified:
			summary.Modified++
			toFetch = append(toFetch, d)
		case Unchanged:
			summary.Unchanged++
		}
	}
	return toFetch
}

// fetchAll retrieves and transforms details under a bounded worker
// pool; a failed item is skipped for this cycle and stays eligible for
// the next one
func (r *Runner) fetchAll(ctx context.Context, toFetch []discovered, summary *Summary) []*domain.FeedItem {
	var mu sync.Mutex
	var items []*domain.FeedItem

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxWorkers)

	for _, d := range toFetch {
		g.Go(func() error {
			detail, err := d.adapter.FetchDetail(ctx, d.game, d.rec.ID)
			if err != nil {
				lgr.Printf("[WARN] detail fetch failed for %s: %v", d.key(), err)
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				return nil
			}

			item := normalize(d, detail, transform.Apply(d.adapter.Rules(), detail))
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // fetch goroutines never return errors

	return items
}

// normalize maps adapter output and transformed content into the
// unified item entity
func normalize(d discovered, detail *domain.DetailRecord, res transform.Result) *domain.FeedItem {
	item := &domain.FeedItem{
		ID:          detail.ID,
		Platform:    d.adapter.Platform(),
		Game:        d.game,
		URL:         detail.URL,
		Title:       detail.Title,
		Author:      detail.Author,
		Content:     res.Content,
		Category:    detail.Category,
		Image:       detail.Image,
		Summary:     detail.Summary,
		EffectiveTS: d.rec.EffectiveTS(),
		NeedsReview: res.NeedsReview,
	}
	if item.Category == "" {
		item.Category = d.category
	}

	switch {
	case detail.CreatedAt > 0:
		item.Published = time.Unix(detail.CreatedAt, 0).UTC()
	case item.EffectiveTS > 0:
		item.Published = time.Unix(item.EffectiveTS, 0).UTC()
	}
	if detail.UpdatedAt > 0 {
		updated := time.Unix(detail.UpdatedAt, 0).UTC()
		item.Updated = &updated
	}
	return item
}

// deliverAll renders, builds and sends each item sequentially, staging
// the state update only after the sink confirms delivery. Delivery
// failure leaves the prior record untouched so the item is picked up
// again next cycle.
func (r *Runner) deliverAll(ctx context.Context, items []*domain.FeedItem, summary *Summary) {
	for i, item := range items {
		key := item.Key()
		hash := item.Hash()

		if stored, ok := r.store.Get(key); ok && stored.LastSentHash == hash {
			// content identical to what was already sent, refresh the
			// timestamp without re-delivering
			r.store.Put(key, domain.StateRecord{LastModified: item.EffectiveTS, LastSentHash: hash})
			summary.Skipped++
			continue
		}

		if item.NeedsReview {
			lgr.Printf("[WARN] item %s flagged for manual review, sending raw content", key)
		}

		embed := r.builder.Build(item, render.Text(item.Content))
		if err := r.sink.Send(ctx, embed); err != nil {
			lgr.Printf("[WARN] delivery failed for %s: %v", key, err)
			summary.Failed++
			continue
		}

		r.store.Put(key, domain.StateRecord{LastModified: item.EffectiveTS, LastSentHash: hash})
		summary.Delivered++

		if r.opts.SendPacing > 0 && i < len(items)-1 {
			select {
			case <-time.After(r.opts.SendPacing):
			case <-ctx.Done():
				return
			}
		}
	}
}
