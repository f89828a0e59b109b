package main

import (
	"fmt"
	"os"

	"github.com/aretw0/ironlog/internal/cli"
	"github.com/aretw0/ironlog/internal/presentation/tui"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage exercises and templates",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import exercises and templates from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", args[0])
		}
		defer f.Close()

		seed, err := cli.ParseSeed(f, user)
		if err != nil {
			return err
		}

		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		if err := stack.Import(cmd.Context(), seed); err != nil {
			return err
		}
		tui.Success(cmd.OutOrStdout(), fmt.Sprintf("Imported %d exercises and %d templates for %s",
			len(seed.Exercises), len(seed.Templates), user))
		return nil
	},
}

var catalogLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List exercises and templates",
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

		exercises, err := stack.Engine.Catalog().ListExercises(cmd.Context(), user)
		if err != nil {
			return err
		}
		templates, err := stack.Engine.Templates().ListTemplates(cmd.Context(), user)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Exercises:")
		for _, ex := range exercises {
			timer := "no timer"
			if ex.TimerEnabled {
				timer = fmt.Sprintf("%ds rest", ex.TimerSeconds)
			}
			fmt.Fprintf(out, "  %-16s %-24s %-10s %s\n", ex.ID, ex.Name, ex.MuscleGroup, timer)
		}
		fmt.Fprintln(out, "Templates:")
		for _, t := range templates {
			kind := fmt.Sprintf("#%d", t.SequenceOrder)
			if t.Sporadic {
				kind = "sporadic"
			}
			fmt.Fprintf(out, "  %-16s %-24s %-9s %d slots\n", t.ID, t.Name, kind, len(t.Slots))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd, catalogLsCmd)
}
