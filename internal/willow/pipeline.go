package willow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cricbox/willowcast/internal/config"
	"github.com/cricbox/willowcast/internal/envelope"
	"github.com/cricbox/willowcast/internal/fetch"
	"github.com/cricbox/willowcast/internal/hls"
	"github.com/cricbox/willowcast/internal/metrics"
)

// Pipeline runs one full fetch-transform cycle per call. It holds no state
// across runs; every invocation re-fetches and re-resolves.
type Pipeline struct {
	Fetcher     *fetch.Fetcher
	Transformer *Transformer
	Cfg         *config.Config

	locOnce sync.Once
	loc     *time.Location
}

// Run fetches the schedule feed and produces the published document. The only
// error it returns is feed-fetch exhaustion; every downstream failure degrades
// to dropped records or missing stream URLs instead.
func (p *Pipeline) Run(ctx context.Context) (*Schedule, error) {
	start := time.Now()
	sched, err := p.run(ctx)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	log.Printf("pipeline: run complete in %s: %d live, %d upcoming",
		time.Since(start).Round(time.Millisecond), sched.LiveMatches, sched.UpcomingMatches)
	return sched, nil
}

func (p *Pipeline) run(ctx context.Context) (*Schedule, error) {
	feed, err := p.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	live := p.transformGroup(ctx, feed.Live)
	upcoming := p.transformGroup(ctx, feed.Upcoming)

	now := time.Now()
	local := now.In(p.location())
	sched := &Schedule{
		LastRefreshTime: local.Format("03:04:05 PM"),
		LastRefreshDate: local.Format("02-01-2006"),
		Author:          p.Cfg.Author,
		TotalMatches:    len(live) + len(upcoming),
		LiveMatches:     len(live),
		UpcomingMatches: len(upcoming),
		Matches:         append(live, upcoming...),
		LastUpdated:     now.UTC().Format("2006-01-02 15:04:05") + " GMT",
	}
	if sched.Matches == nil {
		sched.Matches = []ResolvedEvent{}
	}
	return sched, nil
}

// fetchFeed GETs the schedule feed with envelope validation inside the retry
// loop, so a wrapped or truncated body is retried like a transport failure.
func (p *Pipeline) fetchFeed(ctx context.Context) (*ScheduleFeed, error) {
	h := http.Header{}
	h.Set("User-Agent", p.Cfg.UserAgent)
	body, err := p.Fetcher.Fetch(ctx, p.Cfg.FeedURL, fetch.Options{
		Header:   h,
		Timeout:  p.Cfg.FeedTimeout,
		Validate: envelope.Validate,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule feed: %w", err)
	}
	raw, err := envelope.Extract(body)
	if err != nil {
		return nil, fmt.Errorf("schedule feed: %w", err)
	}
	var feed ScheduleFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("schedule feed: %w", err)
	}
	return &feed, nil
}

// transformGroup maps one feed group with bounded concurrency. Results land in
// an index-addressed slice so output order matches feed order no matter which
// worker finishes first; dropped records leave gaps that are compacted after.
func (p *Pipeline) transformGroup(ctx context.Context, records []EventRecord) []ResolvedEvent {
	if len(records) == 0 {
		return nil
	}
	workers := p.Cfg.TransformConcurrency
	if workers <= 0 {
		workers = config.DefaultTransformConcurrency
	}
	results := make([]*ResolvedEvent, len(records))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec EventRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ev, err := p.Transformer.Transform(ctx, rec)
			if err != nil {
				log.Printf("pipeline: dropping record %d: %v", i, err)
				metrics.EventsDropped.Inc()
				return
			}
			results[i] = ev
		}(i, rec)
	}
	wg.Wait()

	out := make([]ResolvedEvent, 0, len(records))
	for _, ev := range results {
		if ev != nil {
			out = append(out, *ev)
		}
	}
	return out
}

func (p *Pipeline) location() *time.Location {
	p.locOnce.Do(func() {
		loc, err := time.LoadLocation(p.Cfg.Timezone)
		if err != nil {
			// Asia/Kolkata without tzdata on the host: keep the regional
			// offset rather than silently reporting UTC.
			log.Printf("pipeline: timezone %q unavailable, using fixed IST: %v", p.Cfg.Timezone, err)
			loc = time.FixedZone("IST", 5*3600+1800)
		}
		p.loc = loc
	})
	return p.loc
}

// New wires up a complete pipeline from cfg. Components share one fetcher so
// the retry budget and delay are uniform across every upstream call.
func New(cfg *config.Config) *Pipeline {
	fetcher := &fetch.Fetcher{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay}
	resolver := &hls.Resolver{Fetcher: fetcher, UserAgent: cfg.UserAgent, Timeout: cfg.ManifestTimeout}
	locator := &Locator{Fetcher: fetcher, Resolver: resolver, Cfg: cfg}
	return &Pipeline{
		Fetcher:     fetcher,
		Transformer: &Transformer{Locator: locator},
		Cfg:         cfg,
	}
}
