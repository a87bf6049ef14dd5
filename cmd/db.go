package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/booktrend/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the SQLite mirror of the time series",
}

// dbFile resolves --dbpath, falling back to store.db from the config.
func dbFile(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("dbpath")
	if path == "" {
		path = viper.GetString("store.db")
	}
	return path
}

func openExistingDB(path string) (*storage.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", path)
	}
	return storage.Open(path)
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dbFile(cmd)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", path)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, path, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints per-book statistics from the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openExistingDB(dbFile(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "BOOK\tSAMPLES\tFIRST\tLAST\tPEAK WEB\tPEAK X\tAVG SENTIMENT\t")

		var totalSamples int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\t%.2f\t\n", s.ItemName, s.Samples, s.FirstDate, s.LastDate, s.PeakWeb, s.PeakSocial, s.AvgSentiment)
			totalSamples += s.Samples
		}

		fmt.Fprintln(w, " \t \t \t \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t \t \t \t \t \t\n", totalSamples)

		w.Flush()

		return nil
	},
}

var dbRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists the most recent pipeline runs recorded in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openExistingDB(dbFile(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := db.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTARTED (UTC)\tDURATION\tBOOKS\tROWS\t")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.FinishedAt.Sub(r.StartedAt), r.Items, r.Rows)
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbRunsCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default is store.db from the config)")
	dbRunsCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
}
