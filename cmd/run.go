package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/booktrend/internal/utils"
	"github.com/sw33tLie/booktrend/pkg/engagement"
	"github.com/sw33tLie/booktrend/pkg/pipeline"
	"github.com/sw33tLie/booktrend/pkg/report"
	"github.com/sw33tLie/booktrend/pkg/search"
	"github.com/sw33tLie/booktrend/pkg/sentiment"
	"github.com/sw33tLie/booktrend/pkg/series"
	"github.com/sw33tLie/booktrend/pkg/storage"
	"github.com/sw33tLie/booktrend/pkg/whttp"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search, score and store one measurement per book, then render the reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}

		proxy, _ := cmd.Flags().GetString("proxy")
		useDB, _ := cmd.Flags().GetBool("db")
		noRender, _ := cmd.Flags().GetBool("no-render")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		httpClient, err := whttp.NewClient(whttp.ClientOptions{Timeout: cfg.Search.Timeout, Proxy: proxy})
		if err != nil {
			return err
		}
		searcher := search.NewClient(search.Config{
			APIKey:     cfg.Credentials.APIKey,
			CX:         cfg.Credentials.CX,
			Endpoint:   cfg.Search.Endpoint,
			MaxResults: cfg.Search.MaxResults,
			HTTPClient: httpClient,
		})
		scorer, err := engagement.NewScorer(engagement.Options{
			Timeout: cfg.Scoring.Timeout,
			Delay:   cfg.Scoring.Delay,
			Proxy:   proxy,
		})
		if err != nil {
			return err
		}

		runID := storage.NewRunID()
		started := time.Now()
		utils.Log.Debugf("Run %s started", runID)

		rows := pipeline.Collect(ctx, pipeline.Config{
			Items:        cfg.Items,
			Searcher:     searcher,
			Scorer:       scorer,
			Site:         cfg.Search.Site,
			DateRestrict: cfg.Search.DateRestrict,
			Concurrency:  cfg.Scoring.Concurrency,
			Lexicon:      sentiment.Lexicon{Positive: cfg.Positive, Negative: cfg.Negative},
			Location:     cfg.Location,
			Log:          utils.Log,
		})
		if ctx.Err() != nil {
			return fmt.Errorf("run interrupted: %w", ctx.Err())
		}

		if dryRun {
			printRows(rows)
			return nil
		}

		store := series.NewStore(cfg.StorePath)
		merged, err := store.Update(rows)
		if err != nil {
			return fmt.Errorf("saving %s: %w", cfg.StorePath, err)
		}
		utils.Log.Infof("Saved %d new rows to %s (%d total)", len(rows), cfg.StorePath, len(merged))

		if useDB {
			if err := mirrorRun(ctx, cfg.DBPath, storage.Run{
				ID:         runID,
				StartedAt:  started,
				FinishedAt: time.Now(),
				Items:      len(cfg.Items),
				Rows:       len(rows),
			}, rows); err != nil {
				return err
			}
		}

		if noRender {
			return nil
		}
		_, err = report.Render(report.Options{Dir: cfg.ReportDir, Location: cfg.Location}, merged)
		return err
	},
}

func mirrorRun(ctx context.Context, dbPath string, run storage.Run, rows []series.StatRow) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	defer db.Close()

	if err := db.UpsertRows(ctx, run.ID, rows); err != nil {
		return fmt.Errorf("mirroring rows: %w", err)
	}
	if err := db.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	utils.Log.Infof("Mirrored %d rows to %s (run %s)", len(rows), dbPath, run.ID)
	return nil
}

func printRows(rows []series.StatRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "DATE\tSLOT\tBOOK\tWEB\tX\tSENTIMENT\tTOP LINKS\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%s\t\n", r.Date, r.TimeSlot, r.ItemName, r.WebCount, r.XCount, r.Sentiment, r.TopLinks)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("db", false, "Also mirror the rows into the SQLite database (store.db)")
	runCmd.Flags().Bool("no-render", false, "Do not regenerate the HTML reports")
	runCmd.Flags().Bool("dry-run", false, "Print the collected rows instead of saving them")
}
