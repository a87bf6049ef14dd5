// Package report renders the static HTML site: one interactive chart page
// per book and a portal index linking to them.
package report

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/sw33tLie/booktrend/internal/utils"
	"github.com/sw33tLie/booktrend/pkg/series"
	g "maragu.dev/gomponents"
)

const (
	PlotsDir  = "plots"
	IndexFile = "index.html"
)

// ReportID turns a book title into the file-name stem of its report.
// ASCII and ideographic spaces, path separators, control characters and
// characters that are unsafe in file names or URLs become underscores, so
// the report always lands directly in the plots directory.
func ReportID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ', r == '　', r == '/', r == '\\':
			return '_'
		case unicode.IsControl(r), strings.ContainsRune(`:*?"<>|#%`, r):
			return '_'
		}
		return r
	}, name)
}

// ItemPage is the report path of an item relative to the site root.
func ItemPage(name string) string {
	return PlotsDir + "/" + ReportID(name) + "_interactive.html"
}

// ItemHref is ItemPage escaped for use in a link.
func ItemHref(name string) string {
	return PlotsDir + "/" + url.PathEscape(ReportID(name)+"_interactive.html")
}

// Options controls where and how the site is written.
type Options struct {
	Dir         string
	GeneratedAt time.Time
	Location    *time.Location
}

// Render writes every item page and the portal. It does nothing when rows
// is empty. The written paths are returned relative to Dir.
func Render(opts Options, rows []series.StatRow) ([]string, error) {
	if len(rows) == 0 {
		utils.Log.Warn("No data to plot.")
		return nil, nil
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	if opts.Location != nil {
		opts.GeneratedAt = opts.GeneratedAt.In(opts.Location)
	}

	if err := os.MkdirAll(filepath.Join(opts.Dir, PlotsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	var written []string
	var cards []summary
	for _, name := range series.Items(rows) {
		itemRows := series.ForItem(rows, name)

		page, err := itemPage(name, itemRows)
		if err != nil {
			return written, fmt.Errorf("building report for %s: %w", name, err)
		}
		rel := ItemPage(name)
		if err := writeNode(filepath.Join(opts.Dir, filepath.FromSlash(rel)), page); err != nil {
			return written, err
		}
		utils.Log.Infof("Report generated: %s", rel)
		written = append(written, rel)

		cards = append(cards, summary{Name: name, Href: ItemHref(name), Latest: itemRows[len(itemRows)-1]})
	}

	if err := writeNode(filepath.Join(opts.Dir, IndexFile), portalPage(cards, opts.GeneratedAt)); err != nil {
		return written, err
	}
	utils.Log.Infof("Portal generated: %s", IndexFile)
	written = append(written, IndexFile)

	return written, nil
}

func writeNode(path string, n g.Node) error {
	var buf bytes.Buffer
	if err := n.Render(&buf); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
