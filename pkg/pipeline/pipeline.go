// Package pipeline runs one measurement pass over the tracked books:
// search, score, select and aggregate into one row per book.
package pipeline

import (
	"context"
	"time"

	"github.com/sw33tLie/booktrend/pkg/config"
	"github.com/sw33tLie/booktrend/pkg/engagement"
	"github.com/sw33tLie/booktrend/pkg/ranking"
	"github.com/sw33tLie/booktrend/pkg/search"
	"github.com/sw33tLie/booktrend/pkg/sentiment"
	"github.com/sw33tLie/booktrend/pkg/series"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Searcher is satisfied by *search.Client.
type Searcher interface {
	Query(ctx context.Context, keywords, exclude []string, opts search.QueryOptions) (int, []search.Result)
}

// Config holds everything Collect needs for a single run.
type Config struct {
	Items        []config.TrackedItem
	Searcher     Searcher
	Scorer       engagement.LinkScorer
	Site         string
	DateRestrict string
	Concurrency  int // scoring workers, defaults to 1
	Lexicon      sentiment.Lexicon
	Location     *time.Location
	Now          func() time.Time // defaults to time.Now
	Log          Logger           // optional; nil = no logging

	// OnItemDone is called after each book is measured. Nil = no callback.
	OnItemDone func(row series.StatRow)
}

// Collect measures every item in configuration order. Every row of a run
// carries the same date and slot, taken once when the run starts.
func Collect(ctx context.Context, cfg Config) []series.StatRow {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	date, slot := series.Stamp(now(), cfg.Location)
	log.Infof("Collecting %d books for %s (%s)", len(cfg.Items), date, slot)

	rows := make([]series.StatRow, 0, len(cfg.Items))
	for _, item := range cfg.Items {
		if ctx.Err() != nil {
			log.Warnf("Run interrupted before %s: %v", item.Title, ctx.Err())
			break
		}

		row := measure(ctx, cfg, log, item)
		row.Date = date
		row.TimeSlot = slot
		rows = append(rows, row)

		if cfg.OnItemDone != nil {
			cfg.OnItemDone(row)
		}
	}
	return rows
}

func measure(ctx context.Context, cfg Config, log Logger, item config.TrackedItem) series.StatRow {
	log.Infof("Processing: %s", item.Title)

	webCount, _ := cfg.Searcher.Query(ctx, item.Keywords, item.Exclude, search.QueryOptions{
		DateRestrict: cfg.DateRestrict,
	})
	xCount, results := cfg.Searcher.Query(ctx, item.Keywords, item.Exclude, search.QueryOptions{
		Site:         cfg.Site,
		DateRestrict: cfg.DateRestrict,
	})

	row := series.StatRow{
		ItemName:  item.Title,
		WebCount:  webCount,
		XCount:    xCount,
		Sentiment: sentiment.Neutral,
		TopLinks:  ranking.NoLinks,
	}
	if len(results) == 0 {
		log.Debugf("No %s results for %s", cfg.Site, item.Title)
		return row
	}

	links := make([]string, len(results))
	snippets := make([]string, len(results))
	for i, r := range results {
		links[i] = r.Link
		snippets[i] = r.Snippet
	}

	scores := engagement.ScoreAll(ctx, cfg.Scorer, links, cfg.Concurrency)
	scored := make([]ranking.ScoredLink, len(links))
	for i := range links {
		scored[i] = ranking.ScoredLink{Link: links[i], Score: scores[i]}
		log.Debugf("  %s -> %d", links[i], scores[i])
	}

	kept := ranking.Select(scored, item.TopPercentile)
	row.TopLinks = ranking.Serialize(kept)
	row.Sentiment = cfg.Lexicon.Score(snippets)

	log.Infof("  web=%d %s=%d kept=%d/%d sentiment=%.2f", webCount, cfg.Site, xCount, len(kept), len(scored), row.Sentiment)
	return row
}
