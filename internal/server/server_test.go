package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sw33tLie/booktrend/pkg/series"
	"github.com/sw33tLie/booktrend/pkg/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	store := series.NewStore(filepath.Join(dir, "stats.csv"))
	rows := []series.StatRow{
		{Date: "2024-01-01", TimeSlot: series.Morning, ItemName: "嫌われる　勇気", WebCount: 10, XCount: 2, Sentiment: 0.5, TopLinks: "https://x.com/a/status/1|4"},
		{Date: "2024-01-01", TimeSlot: series.Night, ItemName: "嫌われる　勇気", WebCount: 12, XCount: 3, Sentiment: 0.6, TopLinks: "なし"},
		{Date: "2024-01-01", TimeSlot: series.Night, ItemName: "Deep Work", WebCount: 5, XCount: 0, Sentiment: 0.5, TopLinks: "なし"},
	}
	if err := store.Save(rows); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>portal</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(New(StoreSource(store), dir).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestItemsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/items")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var items []apiItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "嫌われる　勇気" || items[0].Report != "plots/嫌われる_勇気_interactive.html" {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[0].Latest.TimeSlot != "night" || items[0].Latest.WebCount != 12 || len(items[0].Latest.TopLinks) != 0 {
		t.Errorf("unexpected latest row %+v", items[0].Latest)
	}
}

func TestSeriesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/series/" + url.PathEscape("嫌われる　勇気"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var rows []apiRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].TopLinks[0] != (apiLink{URL: "https://x.com/a/status/1", Score: 4}) {
		t.Errorf("unexpected links %+v", rows[0].TopLinks)
	}

	resp, err = http.Get(ts.URL + "/api/series/unknown")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown item, got %d", resp.StatusCode)
	}
}

func TestServesRenderedSite(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "portal") {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
}

func TestItemsFromSQLiteMirror(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "mirror.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := []series.StatRow{
		{Date: "2024-01-02", TimeSlot: series.Morning, ItemName: "A", WebCount: 2, Sentiment: 0.5, TopLinks: "なし"},
		{Date: "2024-01-01", TimeSlot: series.Night, ItemName: "A", WebCount: 1, Sentiment: 0.5, TopLinks: "なし"},
	}
	if err := db.UpsertRows(context.Background(), storage.NewRunID(), rows); err != nil {
		t.Fatal(err)
	}

	source := func(ctx context.Context) ([]series.StatRow, error) { return db.ListRows(ctx, "") }
	ts := httptest.NewServer(New(source, dir).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/items")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var items []apiItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Latest.Date != "2024-01-02" || items[0].Latest.WebCount != 2 {
		t.Fatalf("unexpected items %+v", items)
	}
}
