package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/ironlog/internal/presentation/tui"
	"github.com/aretw0/ironlog/pkg/report"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the template due next",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		tmpl, err := stack.Engine.NextTemplate(cmd.Context(), user)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Next: %s (%s)\n", tmpl.Name, tmpl.ID)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished workouts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		records, err := stack.Engine.History(cmd.Context(), user)
		if err != nil {
			return err
		}
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No workouts recorded yet.")
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s  %-16s %-10s %8.1f kg\n",
				r.FinishedAt.Local().Format("2006-01-02 15:04"), r.TemplateID, r.Status, r.Volume())
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize volume, completion rate and training frequency",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		summary, err := stack.Engine.Report(cmd.Context(), user)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}
		out, err := tui.NewRenderer()(formatReport(summary))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func formatReport(s report.Summary) string {
	var b strings.Builder
	b.WriteString("# Report\n\n")
	fmt.Fprintf(&b, "- Workouts: %d\n- Completed: %d (%d%%)\n\n", s.TotalExecutions, s.Completed, s.CompletionRate)

	if len(s.Volume) > 0 {
		b.WriteString("## Volume\n\n| Date | Template | kg |\n|---|---|---|\n")
		for _, p := range s.Volume {
			fmt.Fprintf(&b, "| %s | %s | %.1f |\n", p.FinishedAt.Local().Format("01-02"), p.TemplateID, p.Volume)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Last 14 days\n\n")
	for _, d := range s.Frequency {
		fmt.Fprintf(&b, "`%s` %s\n", d.Date, strings.Repeat("■", d.Count))
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(nextCmd, historyCmd, reportCmd)
	historyCmd.Flags().Int("limit", 20, "Show at most this many workouts (0 for all)")
	reportCmd.Flags().Bool("json", false, "Print the summary as JSON")
}
