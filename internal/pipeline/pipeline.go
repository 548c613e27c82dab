// Package pipeline sequences fetching, classification, the time window,
// dedup, caching and entity annotation, and exposes queries over the cache.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/assembly-news-radar/internal/cache"
	"github.com/DeafMist/assembly-news-radar/internal/classify"
	"github.com/DeafMist/assembly-news-radar/internal/dedupe"
	"github.com/DeafMist/assembly-news-radar/internal/entity"
	"github.com/DeafMist/assembly-news-radar/internal/models"
	"github.com/DeafMist/assembly-news-radar/internal/processing"
	"github.com/DeafMist/assembly-news-radar/internal/window"
)

// Fetcher returns raw candidates for one keyword.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string, count int) ([]models.Candidate, error)
}

// Publisher receives items newly inserted into the cache.
type Publisher interface {
	Publish(ctx context.Context, runID string, items []models.NewsItem) error
}

// Options are the variant-specific constants of a deployment.
type Options struct {
	Keywords        []string
	Display         int
	MaxParallel     int
	BreakingWindow  time.Duration
	HistoryWindow   time.Duration
	RefreshInterval time.Duration
	SweepInterval   time.Duration
}

// Deps are the collaborators of a Service. Publisher, Clock and Log are optional.
type Deps struct {
	Fetcher      Fetcher
	Classifier   *classify.Classifier
	Deduplicator *dedupe.Deduplicator
	Cache        *cache.Cache
	Directory    *entity.Directory
	Publisher    Publisher
	Clock        func() time.Time
	Log          *slog.Logger
}

// Service is the pipeline orchestrator. Passes are serialised; queries
// read snapshots of the cache and never fail on upstream errors.
type Service struct {
	Deps
	opts  Options
	runMu sync.Mutex
}

// New creates a Service.
func New(deps Deps, opts Options) *Service {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Log == nil {
		deps.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Directory == nil {
		deps.Directory = entity.NewDirectory(nil)
	}
	if opts.Display <= 0 {
		opts.Display = 100
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	return &Service{Deps: deps, opts: opts}
}

// Keywords returns the configured refresh keywords.
func (s *Service) Keywords() []string {
	return append([]string(nil), s.opts.Keywords...)
}

type passStats struct {
	fetched        int
	failedKeywords int
	noLink         int
	irrelevant     int
	badDate        int
	stale          int
	duplicates     int
	inserted       int
	refreshed      int
}

// Refresh runs one pipeline pass over keywords immediately and returns the
// items that survived it, as cached.
func (s *Service) Refresh(ctx context.Context, keywords []string) []models.NewsItem {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	runID := uuid.NewString()
	log := s.Log.With(slog.String("run_id", runID))
	started := s.Clock()
	var st passStats

	batch := s.fetchAll(ctx, keywords, s.opts.Display, &st, log)
	items := s.admit(batch, s.Clock(), s.opts.BreakingWindow, &st, log)

	res := s.Deduplicator.Batch(items, s.Cache.Contains)
	st.duplicates = res.Dropped

	known := s.Directory.Snapshot()
	var inserted []models.NewsItem
	ids := make([]string, 0, len(res.Fresh)+len(res.Refreshes))

	for _, it := range res.Fresh {
		it = entity.Annotate(it, known)
		if s.Cache.Upsert(it) {
			inserted = append(inserted, it)
			st.inserted++
		} else {
			st.refreshed++
		}
		ids = append(ids, it.ID)
	}
	for _, it := range res.Refreshes {
		s.Cache.Refresh(entity.Annotate(it, known))
		st.refreshed++
		ids = append(ids, it.ID)
	}

	if s.Publisher != nil && len(inserted) > 0 {
		if err := s.Publisher.Publish(ctx, runID, inserted); err != nil {
			log.Warn("publish cached items", slog.Any("err", err), slog.Int("count", len(inserted)))
		}
	}

	out := make([]models.NewsItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.Cache.Get(id); ok {
			out = append(out, it)
		}
	}

	log.Info("pipeline pass completed",
		slog.Int("keywords", len(keywords)),
		slog.Int("failed_keywords", st.failedKeywords),
		slog.Int("fetched", st.fetched),
		slog.Int("irrelevant", st.irrelevant),
		slog.Int("bad_date", st.badDate),
		slog.Int("stale", st.stale),
		slog.Int("duplicates", st.duplicates),
		slog.Int("inserted", st.inserted),
		slog.Int("refreshed", st.refreshed),
		slog.Int("cached", s.Cache.Len()),
		slog.Duration("took", s.Clock().Sub(started)),
	)
	return out
}

// ListCached returns a snapshot of the cache.
func (s *Service) ListCached() []models.NewsItem {
	return s.Cache.All()
}

// SearchOnce runs a single fetch, classify and annotate cycle for query.
// Results are not cached.
func (s *Service) SearchOnce(ctx context.Context, query string, limit int) []models.NewsItem {
	log := s.Log.With(slog.String("query", query))
	candidates, err := s.Fetcher.Fetch(ctx, query, limit)
	if err != nil {
		log.Warn("search fetch failed", slog.Any("err", err))
		return []models.NewsItem{}
	}

	known := s.Directory.Snapshot()
	out := make([]models.NewsItem, 0, len(candidates))
	for _, c := range candidates {
		it, ok := s.classify(c)
		if !ok {
			continue
		}
		if ts, err := window.ParsePubDate(c.PubDate); err == nil {
			it.Published = ts
		}
		out = append(out, entity.Annotate(it, known))
	}
	return out
}

// EntityNews fetches the historical feed for one entity name: the long
// window applies and near-duplicates are removed. Results are not cached.
func (s *Service) EntityNews(ctx context.Context, name string, limit int) []models.NewsItem {
	log := s.Log.With(slog.String("entity", name))
	var st passStats

	candidates, err := s.Fetcher.Fetch(ctx, name, limit)
	if err != nil {
		log.Warn("entity fetch failed", slog.Any("err", err))
		return []models.NewsItem{}
	}
	st.fetched = len(candidates)

	items := s.admit(candidates, s.Clock(), s.opts.HistoryWindow, &st, log)
	known := s.Directory.Snapshot()
	out := make([]models.NewsItem, 0, len(items))
	for _, it := range s.Deduplicator.Unique(items) {
		out = append(out, entity.Annotate(it, known))
	}
	return out
}

// MentionCounts counts cached items per mentioned entity name.
func (s *Service) MentionCounts() map[string]int {
	counts := make(map[string]int)
	for _, it := range s.ListCached() {
		seen := make(map[string]struct{}, len(it.Entities))
		for _, e := range it.Entities {
			if _, dup := seen[e.Name]; dup {
				continue
			}
			seen[e.Name] = struct{}{}
			counts[e.Name]++
		}
	}
	return counts
}

// TopKeywords tallies the most frequent words across cached items.
func (s *Service) TopKeywords(limit int) []processing.KeywordCount {
	items := s.ListCached()
	texts := make([]string, 0, len(items))
	for _, it := range items {
		texts = append(texts, it.Text())
	}
	return processing.TallyKeywords(texts, limit, 2)
}

// SetEntities replaces the entity directory used by later passes.
func (s *Service) SetEntities(entities []models.Entity) {
	s.Directory.Replace(entities)
}

// Run refreshes the configured keywords now and then every refresh
// interval, and sweeps the cache on its own schedule, until ctx is done.
// A pass that has started is not cancelled.
func (s *Service) Run(ctx context.Context) {
	go s.Cache.RunSweeper(ctx, s.opts.SweepInterval, s.Log)

	interval := s.opts.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Log.Info("scheduler running",
		slog.Duration("refresh_interval", interval),
		slog.Duration("sweep_interval", s.opts.SweepInterval),
		slog.Int("keywords", len(s.opts.Keywords)),
	)

	passCtx := context.WithoutCancel(ctx)
	s.Refresh(passCtx, s.opts.Keywords)

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Refresh(passCtx, s.opts.Keywords)
		}
	}
}

// fetchAll fetches every distinct keyword with bounded parallelism and
// concatenates results in keyword order. Failed keywords are skipped.
func (s *Service) fetchAll(ctx context.Context, keywords []string, count int, st *passStats, log *slog.Logger) []models.Candidate {
	keywords = distinct(keywords)
	if len(keywords) == 0 {
		return nil
	}

	results := make([][]models.Candidate, len(keywords))
	failed := make([]bool, len(keywords))

	var g errgroup.Group
	g.SetLimit(min(len(keywords), s.opts.MaxParallel))
	for i, kw := range keywords {
		i, kw := i, kw // per-iteration copies (go directive is 1.21)
		g.Go(func() error {
			candidates, err := s.Fetcher.Fetch(ctx, kw, count)
			if err != nil {
				log.Warn("fetch failed, skipping keyword", slog.String("keyword", kw), slog.Any("err", err))
				failed[i] = true
				return nil
			}
			results[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	var batch []models.Candidate
	for i := range keywords {
		if failed[i] {
			st.failedKeywords++
		}
		batch = append(batch, results[i]...)
	}
	st.fetched = len(batch)
	return batch
}

// admit converts candidates into items and keeps those that are relevant
// and inside the window.
func (s *Service) admit(candidates []models.Candidate, now time.Time, d time.Duration, st *passStats, log *slog.Logger) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(candidates))
	for _, c := range candidates {
		if c.Link == "" {
			st.noLink++
			continue
		}
		it, ok := s.classify(c)
		if !ok {
			st.irrelevant++
			continue
		}
		published, err := window.ParsePubDate(c.PubDate)
		if err != nil {
			st.badDate++
			log.Debug("dropping item", slog.String("link", c.Link), slog.Any("err", err))
			continue
		}
		if !window.Contains(published, now, d) {
			st.stale++
			continue
		}
		it.Published = published
		out = append(out, it)
	}
	return out
}

func (s *Service) classify(c models.Candidate) (models.NewsItem, bool) {
	title := processing.StripMarkup(c.Title)
	description := processing.StripMarkup(c.Description)

	matched, ok := s.Classifier.Classify(title, description)
	if !ok {
		return models.NewsItem{}, false
	}

	keyword := c.Keyword
	if keyword == "" {
		keyword = models.Unknown
	}
	return models.NewsItem{
		ID:              dedupe.ContentID(c.Link),
		Title:           title,
		Description:     description,
		Link:            c.Link,
		PubDate:         c.PubDate,
		Keyword:         keyword,
		MatchedKeywords: matched,
	}, true
}

func distinct(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
