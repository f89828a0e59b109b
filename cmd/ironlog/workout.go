package main

import (
	"os"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/internal/cli"
	"github.com/aretw0/ironlog/internal/presentation/tui"
	"github.com/aretw0/ironlog/pkg/runner"
	"github.com/spf13/cobra"
)

var workoutCmd = &cobra.Command{
	Use:   "workout [template-id]",
	Short: "Log a workout interactively",
	Long: `Opens the workout console. With a template id a session is started (or the
saved one for that template resumed); without one the active session is resumed.
Quitting keeps the session; "end" records it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")

		stack, err := openStack(cmd, ironlog.WithAlert(func(string) {
			// Terminal bell on rest timer expiry.
			os.Stdout.WriteString("\a")
		}))
		if err != nil {
			return err
		}
		defer stack.Close()

		opts := []runner.Option{runner.WithLogger(logger)}
		if len(args) == 1 {
			opts = append(opts, runner.WithTemplate(args[0]))
		}
		if jsonMode {
			opts = append(opts, runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)))
		} else {
			tui.PrintBanner(os.Stdout, ironlog.Version)
			opts = append(opts, runner.WithRenderer(tui.NewRenderer()))
		}

		outcome, err := runner.NewRunner(stack.Engine, user, opts...).Run(cmd.Context())
		if err != nil {
			return err
		}
		if !jsonMode && outcome == runner.OutcomeSuspended {
			cli.PrintSystemMessage(os.Stdout, "Workout saved. Run 'ironlog workout' to resume.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workoutCmd)
	workoutCmd.Flags().Bool("json", false, "Exchange JSON lines instead of the interactive console")
}
