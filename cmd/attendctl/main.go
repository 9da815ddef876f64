package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"workend-notifier/internal/config"
	"workend-notifier/internal/models"
	"workend-notifier/pkg/reporter"
	"workend-notifier/pkg/timeofday"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var baseURL string

	root := &cobra.Command{
		Use:           "attendctl",
		Short:         "Report attendance marks to the work-end notifier",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", "", "Notifier API base URL (default from HTTP_PORT)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")

	client := func() *reporter.Client {
		if baseURL == "" {
			baseURL = config.GetAppConfig().ReportURL()
		}
		return reporter.New(baseURL, nil)
	}

	root.AddCommand(
		newAttendanceCmd(client),
		newBreakStartCmd(client),
		newSimpleCmd(client, "break-end", "End the current break", (*reporter.Client).ReportBreakEnd),
		newSimpleCmd(client, "before-work", "Report that work has not started yet", (*reporter.Client).ReportBeforeWork),
		newSimpleCmd(client, "on-break", "Report that a break is in progress", (*reporter.Client).ReportOnBreak),
		newStatusCmd(client),
	)
	return root
}

func newAttendanceCmd(client func() *reporter.Client) *cobra.Command {
	var start, end string
	var breaks []string

	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Send today's start, end and break marks",
		RunE: func(cmd *cobra.Command, args []string) error {
			record := models.AttendanceRecord{StartTime: start, EndTime: end}
			for _, raw := range breaks {
				interval, err := parseBreak(raw)
				if err != nil {
					return err
				}
				record.Breaks = append(record.Breaks, interval)
			}

			result, err := client().ReportAttendance(cmd.Context(), record)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Start time HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "End time HH:MM (empty while still working)")
	cmd.Flags().StringArrayVar(&breaks, "break", nil, "Break HH:MM-HH:MM, or HH:MM- for an open break (repeatable)")
	cmd.MarkFlagRequired("start")
	return cmd
}

func newBreakStartCmd(client func() *reporter.Client) *cobra.Command {
	var duration, warning int

	cmd := &cobra.Command{
		Use:   "break-start",
		Short: "Start a break now and get reminded before it ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client().ReportBreakStart(cmd.Context(), duration, warning)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().IntVar(&duration, "duration", 60, "Break duration in minutes")
	cmd.Flags().IntVar(&warning, "warning", 5, "Remind this many minutes before the break ends")
	return cmd
}

func newSimpleCmd(
	client func() *reporter.Client,
	use, short string,
	call func(*reporter.Client, context.Context) (*models.CompletionResult, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call(client(), cmd.Context())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newStatusCmd(client func() *reporter.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the work date, latest result and pending alarms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			view, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			alarms, err := c.Alarms(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Work date:    %s\n", view.WorkDate)
			fmt.Fprintf(out, "Permission:   %s\n", view.Permission)
			fmt.Fprintf(out, "Observer:     %s\n", view.Observer)
			if view.Latest != nil {
				printResult(out, view.Latest)
			}
			if len(alarms) == 0 {
				fmt.Fprintln(out, "No pending alarms")
				return nil
			}
			fmt.Fprintln(out, "Alarms:")
			for _, a := range alarms {
				line := fmt.Sprintf("  %s  %s", a.FireAt.Local().Format("15:04"), a.Name)
				if a.PeriodMinutes > 0 {
					line += fmt.Sprintf(" (every %s)", time.Duration(a.PeriodMinutes)*time.Minute)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

// parseBreak разбирает "12:00-12:30" или "15:00-" для идущего перерыва
func parseBreak(raw string) (models.BreakInterval, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return models.BreakInterval{}, fmt.Errorf("break %q: expected HH:MM-HH:MM", raw)
	}
	if _, err := timeofday.ToMinutes(start); err != nil {
		return models.BreakInterval{}, fmt.Errorf("break %q: %w", raw, err)
	}
	if end = strings.TrimSpace(end); end != "" {
		if _, err := timeofday.ToMinutes(end); err != nil {
			return models.BreakInterval{}, fmt.Errorf("break %q: %w", raw, err)
		}
	}
	return models.BreakInterval{Start: strings.TrimSpace(start), End: end}, nil
}

func printResult(out io.Writer, result *models.CompletionResult) {
	fmt.Fprintf(out, "Status:       %s\n", result.Status)
	if result.CompletionTime != "" {
		fmt.Fprintf(out, "Eight hours:  %s\n", result.CompletionTime)
	}
	if result.Message != "" {
		fmt.Fprintf(out, "Message:      %s\n", strings.ReplaceAll(result.Message, "\n", "\n              "))
	}
}
