// Package engagement scrapes a numeric engagement signal (likes, retweets)
// out of the metadata of a result page.
package engagement

import (
	"context"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/booktrend/internal/utils"
	"github.com/sw33tLie/booktrend/pkg/whttp"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultDelay   = 1 * time.Second
)

var engagementRegex = regexp.MustCompile(`(\d[\d,.]*)\s*(?:Likes|いいね|Retweets|リツイート)`)

// Options configures a Scorer.
type Options struct {
	// Timeout bounds each page fetch.
	Timeout time.Duration
	// Delay is the minimum spacing between two fetches, shared by every
	// goroutine using the same Scorer. Zero disables the gate.
	Delay time.Duration
	Proxy string
}

type Scorer struct {
	client  *retryablehttp.Client
	timeout time.Duration
	gate    *rate.Limiter
}

func NewScorer(opts Options) (*Scorer, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client, err := whttp.NewClient(whttp.ClientOptions{Timeout: opts.Timeout, Proxy: opts.Proxy})
	if err != nil {
		return nil, err
	}
	return &Scorer{
		client:  client,
		timeout: opts.Timeout,
		gate:    newGate(opts.Delay),
	}, nil
}

// newGate returns a limiter releasing one fetch per delay. The initial
// token is consumed so that even the first fetch waits.
func newGate(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(delay), 1)
	l.Allow()
	return l
}

// Score fetches url and returns the summed engagement found in its
// metadata. Every failure yields 0.
func (s *Scorer) Score(ctx context.Context, url string) int {
	if err := s.gate.Wait(ctx); err != nil {
		utils.Log.Debugf("Scoring of %s cancelled: %v", url, err)
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{Method: http.MethodGet, URL: url}, s.client)
	if err != nil {
		utils.Log.Debugf("Could not fetch %s: %v", url, err)
		return 0
	}
	if res.StatusCode != http.StatusOK {
		utils.Log.Debugf("Fetching %s returned status %d", url, res.StatusCode)
		return 0
	}

	score := ScoreHTML(res.BodyString)
	utils.Log.Debugf("Engagement for %s: %d", url, score)
	return score
}

// ScoreHTML extracts the candidate text from page and parses it.
func ScoreHTML(page string) int {
	text, ok := CandidateText(page)
	if !ok {
		return 0
	}
	return ParseEngagement(text)
}

// CandidateText returns, in priority order, the og:description, the
// description meta tag or the page title.
func CandidateText(page string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", false
	}

	if content, ok := metaContent(doc, `meta[property="og:description"]`); ok {
		return content, true
	}
	if content, ok := metaContent(doc, `meta[name="description"]`); ok {
		return content, true
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title, true
	}
	return "", false
}

func metaContent(doc *goquery.Document, selector string) (string, bool) {
	content, exists := doc.Find(selector).First().Attr("content")
	content = strings.TrimSpace(content)
	return content, exists && content != ""
}

// ParseEngagement sums every "<number> Likes|いいね|Retweets|リツイート"
// occurrence in text. Thousands separators are ignored. The sum saturates
// at math.MaxInt so it never goes negative.
func ParseEngagement(text string) int {
	total := 0
	for _, m := range engagementRegex.FindAllStringSubmatch(text, -1) {
		digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			continue
		}
		if n > math.MaxInt-total {
			return math.MaxInt
		}
		total += n
	}
	return total
}
