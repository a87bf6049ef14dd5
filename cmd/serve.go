package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/booktrend/internal/server"
	"github.com/sw33tLie/booktrend/pkg/series"
	"github.com/sw33tLie/booktrend/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the rendered reports on a local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		useDB, _ := cmd.Flags().GetBool("db")

		source := server.StoreSource(series.NewStore(storePath()))
		if useDB {
			db, err := openExistingDB(viper.GetString("store.db"))
			if err != nil {
				return err
			}
			defer db.Close()
			source = sqliteSource(db)
		}

		return server.New(source, reportDir()).Start(listenAddr)
	},
}

func sqliteSource(db *storage.DB) server.RowSource {
	return func(ctx context.Context) ([]series.StatRow, error) {
		return db.ListRows(ctx, "")
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "127.0.0.1:8080", "HTTP listen address")
	serveCmd.Flags().Bool("db", false, "Serve the API from the SQLite mirror (store.db) instead of the CSV store")
}
