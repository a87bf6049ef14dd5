// Package config turns the viper-backed configuration into validated,
// immutable run settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"github.com/sw33tLie/booktrend/internal/utils"
)

const (
	DefaultEndpoint      = "https://www.googleapis.com/customsearch/v1"
	DefaultSite          = "x.com"
	DefaultDateRestrict  = "d1"
	DefaultMaxResults    = 10
	DefaultScoreTimeout  = 5 * time.Second
	DefaultScoreDelay    = 1 * time.Second
	DefaultStorePath     = "data/processed/daily_stats.csv"
	DefaultDBPath        = "booktrend.sqlite"
	DefaultReportDir     = "."
	DefaultTimezone      = "Asia/Tokyo"
	DefaultTopPercentile = 100
)

var (
	ErrMissingCredentials = errors.New("GOOGLE_API_KEY or GOOGLE_CX is not set")
	ErrNoItems            = errors.New("no books configured")
)

var (
	DefaultPositiveWords = []string{"面白い", "最高", "勉強になった", "おすすめ", "救われた"}
	DefaultNegativeWords = []string{"微妙", "合わない", "難しい", "ひどい", "つまらない"}
)

// TrackedItem is one book whose buzz is measured.
type TrackedItem struct {
	Title         string   `mapstructure:"title"`
	Keywords      []string `mapstructure:"keywords"`
	Exclude       []string `mapstructure:"exclude"`
	TopPercentile int      `mapstructure:"top_percentile"`
}

// bookEntry is the raw config form of a TrackedItem. TopPercentile is a
// pointer so an explicit 0 can be told apart from an omitted key.
type bookEntry struct {
	Title         string   `mapstructure:"title"`
	Keywords      []string `mapstructure:"keywords"`
	Exclude       []string `mapstructure:"exclude"`
	TopPercentile *int     `mapstructure:"top_percentile"`
}

// Credentials authenticate against the search provider.
type Credentials struct {
	APIKey string
	CX     string
}

type SearchConfig struct {
	Endpoint     string
	Site         string
	DateRestrict string
	MaxResults   int
	// Timeout bounds each search request. Zero keeps the HTTP client's
	// default, which has no overall deadline.
	Timeout time.Duration
}

type ScoringConfig struct {
	Timeout     time.Duration
	Delay       time.Duration
	Concurrency int
}

type Config struct {
	Items       []TrackedItem
	Credentials Credentials
	Search      SearchConfig
	Scoring     ScoringConfig
	StorePath   string
	DBPath      string
	ReportDir   string
	Location    *time.Location
	Positive    []string
	Negative    []string
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("google.apikey", "")
	v.SetDefault("google.cx", "")
	v.SetDefault("search.endpoint", DefaultEndpoint)
	v.SetDefault("search.site", DefaultSite)
	v.SetDefault("search.daterestrict", DefaultDateRestrict)
	v.SetDefault("search.maxresults", DefaultMaxResults)
	v.SetDefault("search.timeout", 0)
	v.SetDefault("scoring.timeout", DefaultScoreTimeout)
	v.SetDefault("scoring.delay", DefaultScoreDelay)
	v.SetDefault("scoring.concurrency", 1)
	v.SetDefault("store.path", DefaultStorePath)
	v.SetDefault("store.db", DefaultDBPath)
	v.SetDefault("report.dir", DefaultReportDir)
	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("sentiment.positive", DefaultPositiveWords)
	v.SetDefault("sentiment.negative", DefaultNegativeWords)
}

// BindEnv maps the provider credentials to the environment variable names
// used by the scheduled job.
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv("google.apikey", "GOOGLE_API_KEY")
	_ = v.BindEnv("google.cx", "GOOGLE_CX")
}

// Load validates v and builds a Config. Credentials are not checked here so
// offline commands (render, stats) work without them; call RequireCredentials
// before any network activity.
func Load(v *viper.Viper) (*Config, error) {
	var items []bookEntry
	if err := v.UnmarshalKey("books", &items); err != nil {
		return nil, fmt.Errorf("invalid books section: %w", err)
	}
	tracked, err := normalizeItems(items)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", v.GetString("timezone"), err)
	}

	cfg := &Config{
		Items: tracked,
		Credentials: Credentials{
			APIKey: strings.TrimSpace(v.GetString("google.apikey")),
			CX:     strings.TrimSpace(v.GetString("google.cx")),
		},
		Search: SearchConfig{
			Endpoint:     v.GetString("search.endpoint"),
			Site:         v.GetString("search.site"),
			DateRestrict: v.GetString("search.daterestrict"),
			MaxResults:   v.GetInt("search.maxresults"),
			Timeout:      v.GetDuration("search.timeout"),
		},
		Scoring: ScoringConfig{
			Timeout:     v.GetDuration("scoring.timeout"),
			Delay:       v.GetDuration("scoring.delay"),
			Concurrency: v.GetInt("scoring.concurrency"),
		},
		StorePath: v.GetString("store.path"),
		DBPath:    v.GetString("store.db"),
		ReportDir: v.GetString("report.dir"),
		Location:  loc,
		Positive:  utils.CleanStrings(v.GetStringSlice("sentiment.positive")),
		Negative:  utils.CleanStrings(v.GetStringSlice("sentiment.negative")),
	}

	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = DefaultMaxResults
	}
	if cfg.Scoring.Concurrency <= 0 {
		cfg.Scoring.Concurrency = 1
	}
	if cfg.Search.Timeout < 0 {
		cfg.Search.Timeout = 0
	}
	if cfg.Scoring.Timeout <= 0 {
		cfg.Scoring.Timeout = DefaultScoreTimeout
	}
	if cfg.StorePath == "" {
		return nil, errors.New("store.path must not be empty")
	}

	return cfg, nil
}

// RequireCredentials fails when either half of the key pair is missing.
func (c *Config) RequireCredentials() error {
	if c.Credentials.APIKey == "" || c.Credentials.CX == "" {
		return ErrMissingCredentials
	}
	return nil
}

func normalizeItems(items []bookEntry) ([]TrackedItem, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	out := make([]TrackedItem, 0, len(items))
	for i, e := range items {
		it := TrackedItem{
			Title:         strings.TrimSpace(e.Title),
			Keywords:      utils.CleanStrings(e.Keywords),
			Exclude:       utils.CleanStrings(e.Exclude),
			TopPercentile: DefaultTopPercentile,
		}
		if it.Title == "" {
			return nil, fmt.Errorf("book #%d: title is required", i+1)
		}
		if len(it.Keywords) == 0 {
			return nil, fmt.Errorf("book %q: at least one keyword is required", it.Title)
		}
		if e.TopPercentile != nil {
			it.TopPercentile = *e.TopPercentile
		}
		if it.TopPercentile <= 0 || it.TopPercentile > 100 {
			return nil, fmt.Errorf("book %q: top_percentile must be in (0,100], got %d", it.Title, it.TopPercentile)
		}
		out = append(out, it)
	}
	return out, nil
}
