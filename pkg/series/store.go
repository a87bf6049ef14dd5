package series

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sw33tLie/booktrend/internal/utils"
)

const utf8BOM = "\ufeff"

// Columns is the header of the persisted file.
var Columns = []string{"date", "time_slot", "book_title", "web_count", "x_count", "sentiment", "top_links"}

// ErrCorrupt marks a store file that exists but cannot be parsed.
var ErrCorrupt = errors.New("corrupt store file")

// Store is the CSV file holding the whole time series.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads every row. A missing or empty file is an empty series; a
// corrupt file is logged and also treated as empty.
func (s *Store) Load() ([]StatRow, error) {
	rows, err := s.read()
	if errors.Is(err, ErrCorrupt) {
		utils.Log.Warnf("Could not read existing store %s (%v). Starting from an empty series.", s.Path, err)
		return nil, nil
	}
	return rows, err
}

func (s *Store) read() ([]StatRow, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses CSV content. Columns are located by header name so files
// with reordered or extra columns still load. A row with unparsable values
// is skipped with a warning; only a bad header or broken CSV syntax makes
// the whole content ErrCorrupt.
func Decode(r io.Reader) ([]StatRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorrupt, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))] = i
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrCorrupt, c)
		}
	}

	var rows []StatRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, line, err)
		}
		row, err := decodeRecord(rec, idx)
		if err != nil {
			utils.Log.Warnf("Skipping store line %d: %v", line, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeRecord(rec []string, idx map[string]int) (StatRow, error) {
	field := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	slot, err := ParseTimeSlot(field("time_slot"))
	if err != nil {
		return StatRow{}, err
	}
	web, err := parseCount(field("web_count"))
	if err != nil {
		return StatRow{}, fmt.Errorf("web_count: %w", err)
	}
	x, err := parseCount(field("x_count"))
	if err != nil {
		return StatRow{}, fmt.Errorf("x_count: %w", err)
	}
	sentiment, err := strconv.ParseFloat(strings.TrimSpace(field("sentiment")), 64)
	if err != nil {
		return StatRow{}, fmt.Errorf("sentiment: %w", err)
	}

	return StatRow{
		Date:      field("date"),
		TimeSlot:  slot,
		ItemName:  field("book_title"),
		WebCount:  web,
		XCount:    x,
		Sentiment: sentiment,
		TopLinks:  field("top_links"),
	}, nil
}

// parseCount accepts "12" as well as "12.0", which float-typed writers emit.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int(f), nil
}

// Encode writes rows as CSV with a header and a leading UTF-8 BOM so
// spreadsheet tools pick the right encoding for non-ASCII titles.
func Encode(w io.Writer, rows []StatRow) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date,
			string(r.TimeSlot),
			r.ItemName,
			strconv.Itoa(r.WebCount),
			strconv.Itoa(r.XCount),
			strconv.FormatFloat(r.Sentiment, 'f', -1, 64),
			r.TopLinks,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save replaces the file with rows. The content goes to a temporary file
// in the same directory first and is renamed over the target.
func (s *Store) Save(rows []StatRow) (err error) {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary store file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, rows); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting store permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}

// Update upserts newRows into the store under an exclusive lock file and
// returns the resulting series.
func (s *Store) Update(newRows []StatRow) ([]StatRow, error) {
	lock, err := utils.NewFileLock(s.Path)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			utils.Log.Warnf("Could not release %s: %v", lock.Path(), uerr)
		}
	}()

	existing, err := s.Load()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		utils.Log.Infof("Existing data loaded from %s (%d rows)", s.Path, len(existing))
	} else {
		utils.Log.Infof("Creating new store at %s", s.Path)
	}

	merged := Upsert(existing, newRows)
	if err := s.Save(merged); err != nil {
		return nil, err
	}
	return merged, nil
}
