package series

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSlotForHourIsTotal(t *testing.T) {
	want := map[int]TimeSlot{
		0: Night, 1: Night, 2: Night, 3: Night, 4: Night,
		5: Morning, 6: Morning, 7: Morning, 8: Morning, 9: Morning, 10: Morning,
		11: Afternoon, 12: Afternoon, 13: Afternoon, 14: Afternoon, 15: Afternoon, 16: Afternoon,
		17: Evening, 18: Evening, 19: Evening, 20: Evening, 21: Evening, 22: Evening,
		23: Night,
	}
	for h := 0; h < 24; h++ {
		if got := SlotForHour(h); got != want[h] {
			t.Errorf("hour %d: want %s, got %s", h, want[h], got)
		}
	}
}

func TestStampUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	// 2024-01-01 22:30 UTC is 2024-01-02 07:30 in Tokyo.
	at := time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)
	date, slot := Stamp(at, tokyo)
	if date != "2024-01-02" || slot != Morning {
		t.Fatalf("got %s %s", date, slot)
	}
}

func row(date string, slot TimeSlot, name string, web, x int, s float64, links string) StatRow {
	return StatRow{Date: date, TimeSlot: slot, ItemName: name, WebCount: web, XCount: x, Sentiment: s, TopLinks: links}
}

func TestUpsertReplacesSameKey(t *testing.T) {
	existing := []StatRow{row("2024-01-01", Morning, "X", 10, 5, 0.5, "none")}
	got := Upsert(existing, []StatRow{row("2024-01-01", Morning, "X", 12, 6, 0.6, "u1|3")})
	want := []StatRow{row("2024-01-01", Morning, "X", 12, 6, 0.6, "u1|3")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestUpsertSortsChronologically(t *testing.T) {
	existing := []StatRow{
		row("2024-01-02", Morning, "A", 1, 0, 0.5, ""),
		row("2024-01-01", Night, "A", 2, 0, 0.5, ""),
	}
	got := Upsert(existing, []StatRow{
		row("2024-01-01", Afternoon, "A", 3, 0, 0.5, ""),
		row("2024-01-01", Evening, "A", 4, 0, 0.5, ""),
		row("2024-01-01", Morning, "A", 5, 0, 0.5, ""),
	})
	var order []int
	for _, r := range got {
		order = append(order, r.WebCount)
	}
	if !reflect.DeepEqual(order, []int{5, 3, 4, 2, 1}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestUpsertIdempotentAndUnique(t *testing.T) {
	s := []StatRow{
		row("2024-01-01", Morning, "X", 1, 1, 0.5, ""),
		row("2024-01-01", Morning, "Y", 2, 2, 0.5, ""),
		row("2024-01-02", Night, "X", 3, 3, 0.5, ""),
	}
	r := []StatRow{
		row("2024-01-01", Morning, "X", 9, 9, 0.9, "a|1"),
		row("2024-01-03", Evening, "Z", 7, 7, 0.7, ""),
		row("2024-01-03", Evening, "Z", 8, 8, 0.8, ""),
	}

	once := Upsert(s, r)
	twice := Upsert(once, r)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("not idempotent:\n%v\n%v", once, twice)
	}

	seen := map[Key]bool{}
	for _, x := range once {
		if seen[x.Key()] {
			t.Fatalf("duplicate key %v", x.Key())
		}
		seen[x.Key()] = true
	}
	if len(once) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(once))
	}
	if last := once[len(once)-1]; last.WebCount != 8 {
		t.Fatalf("expected the last duplicate to win, got %v", last)
	}
}

func TestItemsAndForItem(t *testing.T) {
	rows := []StatRow{
		row("2024-01-01", Morning, "B", 1, 0, 0.5, ""),
		row("2024-01-01", Morning, "A", 2, 0, 0.5, ""),
		row("2024-01-02", Morning, "B", 3, 0, 0.5, ""),
	}
	if got := Items(rows); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Fatalf("unexpected items %v", got)
	}
	if got := ForItem(rows, "B"); len(got) != 2 || got[1].WebCount != 3 {
		t.Fatalf("unexpected rows %v", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "processed", "daily_stats.csv")
	s := NewStore(path)

	rows := []StatRow{
		row("2024-01-01", Morning, "嫌われる勇気", 1200, 34, 0.67, "https://x.com/a/status/1|12,https://x.com/b/status/2|0"),
		row("2024-01-01", Evening, "Deep, Work", 5, 0, 0.5, "なし"),
	}
	if err := s.Save(rows); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte(utf8BOM+"date,time_slot,book_title,web_count,x_count,sentiment,top_links")) {
		t.Fatalf("unexpected file head %q", raw[:40])
	}

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Fatalf("round trip mismatch:\n%v\n%v", rows, got)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func TestStoreLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()

	rows, err := NewStore(filepath.Join(dir, "missing.csv")).Load()
	if err != nil || rows != nil {
		t.Fatalf("missing file: got %v, %v", rows, err)
	}

	empty := filepath.Join(dir, "empty.csv")
	os.WriteFile(empty, nil, 0o644)
	if rows, err := NewStore(empty).Load(); err != nil || rows != nil {
		t.Fatalf("empty file: got %v, %v", rows, err)
	}

	for name, content := range map[string]string{
		"no header":  "foo,bar\n1,2\n",
		"bad quotes": "date,time_slot,book_title,web_count,x_count,sentiment,top_links\n2024-01-01,morning,\"A,1,1,0.5,なし\n",
	} {
		p := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".csv")
		os.WriteFile(p, []byte(content), 0o644)
		rows, err := NewStore(p).Load()
		if err != nil || rows != nil {
			t.Errorf("%s: expected an empty series, got %v, %v", name, rows, err)
		}
	}
}

func TestDecodeToleratesLegacyLayout(t *testing.T) {
	// Columns reordered, float counts, an extra column.
	content := utf8BOM + "book_title,date,time_slot,web_count,x_count,sentiment,top_links,extra\n" +
		"A,2024-01-01,night,12.0,3.0,0.5,なし,z\n"
	rows, err := Decode(strings.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	want := []StatRow{row("2024-01-01", Night, "A", 12, 3, 0.5, "なし")}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("want %v, got %v", want, rows)
	}
}

func TestStoreUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	s := NewStore(path)

	if _, err := s.Update([]StatRow{row("2024-01-01", Morning, "X", 10, 5, 0.5, "none")}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Update([]StatRow{row("2024-01-01", Morning, "X", 12, 6, 0.6, "u1|3")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].WebCount != 12 {
		t.Fatalf("unexpected merged rows %v", got)
	}

	onDisk, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(onDisk, got) {
		t.Fatalf("disk and memory differ:\n%v\n%v", onDisk, got)
	}
}

func TestStoreSkipsBadRowsAndKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	content := utf8BOM + "date,time_slot,book_title,web_count,x_count,sentiment,top_links\n" +
		"2024-01-01,morning,A,10,1,0.5,なし\n" +
		"2024-01-01,evening,A,11,2,0.6,なし\n" +
		"2024-01-01,night,A,12,3,,なし\n" +
		"2024-01-02,noon,A,13,4,0.5,なし\n" +
		"2024-01-02,morning,A,lots,4,0.5,なし\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)

	rows, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected the 2 valid rows, got %v", rows)
	}

	if _, err := s.Update([]StatRow{row("2024-01-02", Morning, "A", 20, 5, 0.7, "なし")}); err != nil {
		t.Fatal(err)
	}
	onDisk, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	var web []int
	for _, r := range onDisk {
		web = append(web, r.WebCount)
	}
	if !reflect.DeepEqual(web, []int{10, 11, 20}) {
		t.Fatalf("history not kept, got web counts %v", web)
	}
}
