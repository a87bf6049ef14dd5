package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/booktrend/pkg/ranking"
	"github.com/sw33tLie/booktrend/pkg/series"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the latest measurement of every book in the CSV store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := series.NewStore(storePath()).Load()
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			fmt.Println("No data in the store to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "BOOK\tSAMPLES\tLATEST\tWEB\tX\tSENTIMENT\tLINKS\t")

		for _, name := range series.Items(rows) {
			itemRows := series.ForItem(rows, name)
			last := itemRows[len(itemRows)-1]
			fmt.Fprintf(w, "%s\t%d\t%s %s\t%d\t%d\t%.2f\t%d\t\n",
				name, len(itemRows), last.Date, last.TimeSlot, last.WebCount, last.XCount, last.Sentiment, len(ranking.Parse(last.TopLinks)))
		}

		fmt.Fprintln(w, " \t \t \t \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t \t \t \t \t \t\n", len(rows))

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
