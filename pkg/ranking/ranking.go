package ranking

import (
	"sort"
	"strconv"
	"strings"
)

const (
	// NoLinks is stored in place of an empty link list.
	NoLinks = "なし"

	// FallbackTopN is kept when the percentile is outside (0,100].
	FallbackTopN = 3
)

var urlEscaper = strings.NewReplacer(",", "%2C", "|", "%7C")

// ScoredLink is a result link with its engagement score.
type ScoredLink struct {
	Link  string
	Score int
}

// Select ranks scored by descending score and keeps the top percentile.
// Ties keep their input order. Zero scores are not filtered out.
func Select(scored []ScoredLink, topPercentile int) []ScoredLink {
	if len(scored) == 0 {
		return nil
	}

	ranked := make([]ScoredLink, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked[:KeepCount(len(ranked), topPercentile)]
}

// KeepCount returns max(1, ceil(n*pct/100)), bounded by n.
func KeepCount(n, pct int) int {
	if n == 0 {
		return 0
	}
	if pct <= 0 || pct > 100 {
		if n < FallbackTopN {
			return n
		}
		return FallbackTopN
	}
	keep := (n*pct + 99) / 100
	if keep < 1 {
		keep = 1
	}
	if keep > n {
		keep = n
	}
	return keep
}

// Serialize renders links as "url1|score1,url2|score2".
func Serialize(links []ScoredLink) string {
	if len(links) == 0 {
		return NoLinks
	}
	parts := make([]string, 0, len(links))
	for _, l := range links {
		parts = append(parts, urlEscaper.Replace(l.Link)+"|"+strconv.Itoa(l.Score))
	}
	return strings.Join(parts, ",")
}

// Parse reads back a Serialize'd field. Legacy entries without a score
// parse with score 0.
func Parse(field string) []ScoredLink {
	field = strings.TrimSpace(field)
	if field == "" || field == NoLinks || strings.EqualFold(field, "none") {
		return nil
	}

	var out []ScoredLink
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		link, scoreStr := part, ""
		if i := strings.LastIndex(part, "|"); i >= 0 {
			link, scoreStr = part[:i], part[i+1:]
		}
		score, err := strconv.Atoi(scoreStr)
		if err != nil || score < 0 {
			score = 0
		}
		out = append(out, ScoredLink{Link: link, Score: score})
	}
	return out
}
