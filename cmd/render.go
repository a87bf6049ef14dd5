package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/booktrend/pkg/report"
	"github.com/sw33tLie/booktrend/pkg/series"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Regenerate the HTML reports from the stored time series",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := series.NewStore(storePath()).Load()
		if err != nil {
			return err
		}

		loc, err := time.LoadLocation(viper.GetString("timezone"))
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = reportDir()
		}
		_, err = report.Render(report.Options{Dir: dir, Location: loc}, rows)
		return err
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("out", "o", "", "Output directory (default is report.dir)")
}
