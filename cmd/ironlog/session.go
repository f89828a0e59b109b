package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/ironlog/internal/cli"
	"github.com/aretw0/ironlog/internal/presentation/tui"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/runner"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved workout sessions",
	Long:  `List, inspect, and remove the workouts in progress held by the session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List users with a workout in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		users, err := stack.Sessions.List(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to list sessions")
		}
		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Active Sessions:")
		for _, u := range users {
			s, err := stack.Sessions.Load(cmd.Context(), u)
			if err != nil {
				fmt.Fprintf(out, "- %s (unreadable: %v)\n", u, err)
				continue
			}
			fmt.Fprintf(out, "- %s: %s, started %s\n", u, s.TemplateID, s.StartedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Show the saved workout of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		session, err := stack.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to load session of %s", args[0])
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(session, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		frame := runner.Frame{Session: session, ExpandAll: true, Names: exerciseNames(cmd, stack, session)}
		out, err := tui.NewRenderer()(runner.FormatFrame(frame))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <user-id>...",
	Short: "Remove one or more saved sessions without recording them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		var failed int
		for _, u := range args {
			if err := stack.Sessions.Delete(cmd.Context(), u); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", u, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", u)
		}
		if failed > 0 {
			return errors.Newf("%d session(s) not removed", failed)
		}
		return nil
	},
}

func exerciseNames(cmd *cobra.Command, stack *cli.Stack, s *domain.ActiveSession) map[string]string {
	names := make(map[string]string)
	for _, k := range s.ExecutionData.Keys() {
		if ex, err := stack.Engine.Catalog().GetExercise(cmd.Context(), s.UserID, k.ExerciseID); err == nil {
			names[k.ExerciseID] = ex.Name
		}
	}
	return names
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
	sessionInspectCmd.Flags().Bool("json", false, "Print the raw snapshot")
}
