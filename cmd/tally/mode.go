package main

import (
	"context"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/aretw0/tally/internal/cli"
	"github.com/aretw0/tally/internal/presentation/tui"
	"github.com/aretw0/tally/pkg/domain"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Show or change the display modes of a session",
	Long: `Prints the session's modes. The --angle, --rad, --rational and --pi flags
change them; with --pick an interactive menu is shown instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			sessionID := rt.Config.Session.ID
			current, err := rt.Engine.Mode(ctx, sessionID)
			if err != nil {
				return err
			}

			var next domain.Mode
			if pick, _ := cmd.Flags().GetBool("pick"); pick {
				if !tui.IsTerminal(os.Stdin) {
					return fmt.Errorf("--pick needs a terminal")
				}
				next, err = pickMode(current)
			} else {
				next, err = modeFromFlags(cmd, current)
			}
			if err != nil {
				return err
			}

			if next != current {
				if next, err = rt.Engine.SetMode(ctx, sessionID, next); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session '%s': %s\n", sessionID, next)
			return nil
		})
	},
}

type modeChoice struct {
	Label string
	Apply func(domain.Mode) domain.Mode
}

// pickMode asks for each flag in turn, starting from current.
func pickMode(current domain.Mode) (domain.Mode, error) {
	questions := []struct {
		label   string
		choices []modeChoice
	}{
		{"Angle unit", []modeChoice{
			{"Degrees", func(m domain.Mode) domain.Mode { m.Angle = domain.Degrees; return m }},
			{"Radians", func(m domain.Mode) domain.Mode { m.Angle = domain.Radians; return m }},
		}},
		{"Number display", []modeChoice{
			{"Decimal", func(m domain.Mode) domain.Mode { m.Rational = false; return m }},
			{"Fraction", func(m domain.Mode) domain.Mode { m.Rational = true; return m }},
		}},
		{"Multiples of π", []modeChoice{
			{"π", func(m domain.Mode) domain.Mode { m.Pi = true; return m }},
			{"Exact", func(m domain.Mode) domain.Mode { m.Pi = false; return m }},
		}},
	}

	next := current
	for _, q := range questions {
		labels := make([]string, len(q.choices))
		cursor := 0
		for i, c := range q.choices {
			labels[i] = c.Label
			if c.Apply(current) == current {
				cursor = i
			}
		}
		prompt := promptui.Select{
			Label:        q.label,
			Items:        labels,
			CursorPos:    cursor,
			HideSelected: true,
		}
		index, _, err := prompt.Run()
		if err != nil {
			return current, err
		}
		next = q.choices[index].Apply(next)
	}
	return next, nil
}

func init() {
	addModeFlags(modeCmd)
	modeCmd.Flags().Bool("pick", false, "Choose the modes from an interactive menu")
	rootCmd.AddCommand(modeCmd)
}
