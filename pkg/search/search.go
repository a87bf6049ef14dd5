package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/booktrend/internal/utils"
	"github.com/sw33tLie/booktrend/pkg/whttp"
	"github.com/tidwall/gjson"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Result is one item of a provider response.
type Result struct {
	Link    string
	Snippet string
}

// QueryOptions restricts a query to a site and/or a recency window.
type QueryOptions struct {
	Site         string
	DateRestrict string
}

// Config holds everything NewClient needs. Credentials are passed in
// explicitly; the client never reads the environment.
type Config struct {
	APIKey     string
	CX         string
	Endpoint   string
	MaxResults int
	HTTPClient *retryablehttp.Client
}

type Client struct {
	apiKey     string
	cx         string
	endpoint   string
	maxResults int
	http       *retryablehttp.Client
}

func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://www.googleapis.com/customsearch/v1"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{
		apiKey:     cfg.APIKey,
		cx:         cfg.CX,
		endpoint:   endpoint,
		maxResults: maxResults,
		http:       cfg.HTTPClient,
	}
}

// BuildQuery renders "(k1 OR k2) -ex1 -ex2 site:host".
func BuildQuery(keywords, exclude []string, site string) string {
	var sb strings.Builder
	sb.WriteString("(" + strings.Join(keywords, " OR ") + ")")
	for _, w := range exclude {
		sb.WriteString(" -" + w)
	}
	if site = NormalizeSite(site); site != "" {
		sb.WriteString(" site:" + site)
	}
	return sb.String()
}

// NormalizeSite reduces a site restriction to a lower-cased host.
// "https://X.com/home" -> "x.com". Values that don't look like a domain
// under a known public suffix are returned trimmed but otherwise untouched.
func NormalizeSite(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}

	raw := site
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return site
	}
	host := strings.ToLower(u.Hostname())

	if _, err := publicsuffix.Domain(host); err != nil {
		return site
	}
	return host
}

// Query runs a single search. It never fails: any transport or parse error
// is logged and reported as (0, nil).
func (c *Client) Query(ctx context.Context, keywords, exclude []string, opts QueryOptions) (int, []Result) {
	q := BuildQuery(keywords, exclude, opts.Site)

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", q)
	if opts.DateRestrict != "" {
		params.Set("dateRestrict", opts.DateRestrict)
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  http.MethodGet,
		URL:     c.endpoint + "?" + params.Encode(),
		Headers: []whttp.WHTTPHeader{{Name: "Accept", Value: "application/json"}},
	}, c.http)
	if err != nil {
		utils.Log.Warnf("Search request failed for %q: %v", q, err)
		return 0, nil
	}

	if res.StatusCode != http.StatusOK {
		msg := gjson.Get(res.BodyString, "error.message").Str
		utils.Log.Warnf("Search for %q returned status %d: %s", q, res.StatusCode, msg)
		return 0, nil
	}

	return c.parse(q, res.BodyString)
}

func (c *Client) parse(q, body string) (int, []Result) {
	if !gjson.Valid(body) {
		utils.Log.Warnf("Search for %q returned invalid JSON", q)
		return 0, nil
	}

	total := 0
	if raw := gjson.Get(body, "searchInformation.totalResults"); raw.Exists() {
		n, err := strconv.Atoi(strings.TrimSpace(raw.String()))
		if err != nil || n < 0 {
			utils.Log.Warnf("Search for %q returned a bad totalResults %q", q, raw.String())
			return 0, nil
		}
		total = n
	}

	var results []Result
	gjson.Get(body, "items").ForEach(func(_, item gjson.Result) bool {
		if len(results) >= c.maxResults {
			return false
		}
		link := item.Get("link").Str
		if link == "" {
			return true
		}
		results = append(results, Result{Link: link, Snippet: item.Get("snippet").Str})
		return true
	})

	utils.Log.Debugf("Search %q: %d total, %d items", q, total, len(results))
	return total, results
}
