package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/sw33tLie/booktrend/pkg/ranking"
	"github.com/sw33tLie/booktrend/pkg/report"
	"github.com/sw33tLie/booktrend/pkg/series"
)

type apiLink struct {
	URL   string `json:"url"`
	Score int    `json:"score"`
}

type apiRow struct {
	Date      string    `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	Item      string    `json:"item"`
	WebCount  int       `json:"web_count"`
	XCount    int       `json:"x_count"`
	Sentiment float64   `json:"sentiment"`
	TopLinks  []apiLink `json:"top_links"`
}

type apiItem struct {
	Name   string `json:"name"`
	Report string `json:"report"`
	Latest apiRow `json:"latest"`
}

func toAPIRow(r series.StatRow) apiRow {
	links := []apiLink{}
	for _, l := range ranking.Parse(r.TopLinks) {
		links = append(links, apiLink{URL: l.Link, Score: l.Score})
	}
	return apiRow{
		Date:      r.Date,
		TimeSlot:  string(r.TimeSlot),
		Item:      r.ItemName,
		WebCount:  r.WebCount,
		XCount:    r.XCount,
		Sentiment: r.Sentiment,
		TopLinks:  links,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Rows(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := []apiItem{}
	for _, name := range series.Items(rows) {
		itemRows := series.ForItem(rows, name)
		items = append(items, apiItem{
			Name:   name,
			Report: report.ItemPage(name),
			Latest: toAPIRow(itemRows[len(itemRows)-1]),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when the client used a non-canonical escaping.
	name := chi.URLParam(r, "item")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name = unescaped
	}

	rows, err := s.Rows(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	itemRows := series.ForItem(rows, name)
	if len(itemRows) == 0 {
		http.Error(w, "unknown item", http.StatusNotFound)
		return
	}

	out := make([]apiRow, 0, len(itemRows))
	for _, row := range itemRows {
		out = append(out, toAPIRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}
