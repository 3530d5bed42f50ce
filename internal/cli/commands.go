package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"calora/backend/internal/analytics"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard USER_ID",
	Short: "Today's calories, macros and recent activities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerID, err := userArg(args)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			summary, err := rt.svc.BuildToday(ctx, ownerID)
			if err != nil {
				return describeError(ownerID, err)
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), "dashboard", summary)
			}
			printDashboard(cmd, summary)
			return nil
		})
	},
}

var trendDays int

var trendCmd = &cobra.Command{
	Use:   "trend USER_ID",
	Short: "Daily consumed and burned calories for the last N days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerID, err := userArg(args)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			points, err := rt.svc.BuildTrend(ctx, ownerID, trendDays)
			if err != nil {
				return describeError(ownerID, err)
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), "trend", points)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tCONSUMED\tBURNED\tTARGET")
			for _, p := range points {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p.Day, p.Consumed, p.Burned, p.Target)
			}
			return tw.Flush()
		})
	},
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly USER_ID",
	Short: "Seven-day totals, averages and logging streaks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerID, err := userArg(args)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			stats, err := rt.svc.BuildWeeklyStats(ctx, ownerID)
			if err != nil {
				return describeError(ownerID, err)
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), "weekly", stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Range: %s to %s\n", stats.Window.Start, stats.Window.End)
			fmt.Fprintf(out, "Target: %d kcal/day\n", stats.DailyTarget)
			fmt.Fprintf(out, "Totals: consumed=%d burned=%d P=%d C=%d F=%d\n", stats.Totals.Consumed, stats.Totals.Burned, stats.Totals.Protein, stats.Totals.Carbs, stats.Totals.Fats)
			fmt.Fprintf(out, "Average: consumed=%d burned=%d\n", stats.Average.Consumed, stats.Average.Burned)
			fmt.Fprintf(out, "Days logged: meals=%d activity=%d over-target=%d\n", stats.DaysLoggedMeals, stats.DaysLoggedActivity, stats.DaysOverTarget)
			fmt.Fprintf(out, "Top activity: %s\n", orNone(stats.TopActivity))
			return nil
		})
	},
}

var (
	rangeFrom string
	rangeTo   string
)

var rangeCmd = &cobra.Command{
	Use:   "range USER_ID",
	Short: "Per-day totals for an explicit date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerID, err := userArg(args)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			summary, err := rt.svc.BuildRange(ctx, ownerID, rangeFrom, rangeTo)
			if err != nil {
				return describeError(ownerID, err)
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), "range", summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Range: %s to %s (%d days logged)\n", summary.Window.Start, summary.Window.End, summary.DaysLogged)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tCONSUMED\tBURNED\tMEALS\tACTIVITIES\tOVER")
			for _, d := range summary.Days {
				over := ""
				if d.OverTarget {
					over = "yes"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", d.Day, d.Consumed, d.Burned, d.MealCount, d.ActivityCount, over)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Average: consumed=%d burned=%d target=%d\n", summary.Average.Consumed, summary.Average.Burned, summary.DailyTarget)
			return nil
		})
	},
}

var insightCmd = &cobra.Command{
	Use:   "insight USER_ID",
	Short: "Generate the AI weekly insight (falls back when AI is unavailable)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerID, err := userArg(args)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			result, err := rt.insights.GetInsight(ctx, ownerID)
			if err != nil {
				return describeError(ownerID, err)
			}
			if result.Fallback != analytics.FallbackNone {
				fmt.Fprintf(cmd.ErrOrStderr(), "insight fallback reason=%s err=%v\n", result.Fallback, result.Err)
			}
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), "insight", result.Insight)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Insight.Title)
			fmt.Fprintln(out, result.Insight.Message)
			for _, b := range result.Insight.Bullets {
				fmt.Fprintf(out, "  - %s\n", b)
			}
			return nil
		})
	},
}

var (
	reportMonths  int
	reportFrom    string
	reportTo      string
	reportFormat  string
	reportOutPath string
)

var reportCmd = &cobra.Command{
	Use:   "report USER_ID",
	Short: "Build the multi-month analytics report as CSV or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerID, err := userArg(args)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			format := reportFormat
			if outputJSON {
				format = analytics.FormatJSON
			}
			report, err := rt.svc.BuildReport(ctx, ownerID, analytics.ReportRequest{
				Months: reportMonths,
				From:   reportFrom,
				To:     reportTo,
				Format: format,
			})
			if err != nil {
				return describeError(ownerID, err)
			}

			var sb strings.Builder
			if report.Format == analytics.FormatCSV {
				if err := analytics.WriteReportCSV(&sb, report, rt.svc.Location()); err != nil {
					return err
				}
			} else if err := printJSON(&sb, "report", report); err != nil {
				return err
			}

			if reportOutPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), sb.String())
				return nil
			}
			if err := os.WriteFile(reportOutPath, []byte(sb.String()), 0o644); err != nil {
				return fmt.Errorf("write report to %q: %w", reportOutPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s report to %s\n", report.Format, reportOutPath)
			return nil
		})
	},
}

func printDashboard(cmd *cobra.Command, s analytics.DashboardSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Day: %s\n", s.Date)
	fmt.Fprintf(out, "Calories: consumed=%d burned=%d remaining=%d target=%d\n", s.CaloriesConsumed, s.CaloriesBurned, s.CaloriesRemaining, s.DailyTarget)
	fmt.Fprintf(out, "Macros: P=%d/%d C=%d/%d F=%d/%d\n", s.ProteinConsumed, s.ProteinTarget, s.CarbsConsumed, s.CarbsTarget, s.FatsConsumed, s.FatsTarget)
	if len(s.RecentActivities) == 0 {
		fmt.Fprintln(out, "Recent activities: none")
		return
	}
	fmt.Fprintln(out, "Recent activities:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, a := range s.RecentActivities {
		fmt.Fprintf(tw, "  %s\t%s\t%d kcal\t%s\n", a.Type, a.Duration, a.Calories, a.Time)
	}
	_ = tw.Flush()
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

func init() {
	rootCmd.AddCommand(dashboardCmd, trendCmd, weeklyCmd, rangeCmd, insightCmd, reportCmd)

	trendCmd.Flags().IntVar(&trendDays, "days", 7, "Number of days (1-31)")

	rangeCmd.Flags().StringVar(&rangeFrom, "from", "", "Start date YYYY-MM-DD (defaults to 7 days before --to)")
	rangeCmd.Flags().StringVar(&rangeTo, "to", "", "End date YYYY-MM-DD (defaults to today)")

	reportCmd.Flags().IntVar(&reportMonths, "months", analytics.DefaultReportMonths, "Months of history (1-24)")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportFormat, "format", analytics.FormatCSV, "csv, json or pdf")
	reportCmd.Flags().StringVar(&reportOutPath, "out", "", "Write the report to a file instead of stdout")
}
