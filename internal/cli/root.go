package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	databaseURL string
	timezone    string
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "calora",
	Short: "Calora analytics from the command line",
	Long: "calora reads meals and activities straight from the Calora database and prints " +
		"the same dashboard, weekly, insight, and report views the API serves.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&timezone, "tz", "", "IANA timezone for day boundaries (defaults to APP_TIMEZONE)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output as JSON")
}
