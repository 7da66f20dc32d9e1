package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tally/internal/cli"
	"github.com/aretw0/tally/internal/presentation/tui"
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/runner"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>...",
	Short: "Evaluate one expression and print the result",
	Long: `Evaluates an expression without starting the interactive calculator.
Arguments are joined with spaces, so quoting is optional: tally eval 2 ^ 10.

Without --session the evaluation is stateless and uses the mode flags.
With --session it runs under that session's modes and is recorded in its history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			expression, err := runner.SanitizeInputLimit(strings.Join(args, " "), rt.Config.REPL.MaxInputSize)
			if err != nil {
				return err
			}

			var res domain.Result
			if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
				res, err = rt.Engine.Evaluate(ctx, sessionID, expression)
			} else {
				mode, merr := modeFromFlags(cmd, domain.DefaultMode())
				if merr != nil {
					return merr
				}
				res, err = rt.Engine.Calculate(ctx, expression, mode)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Display)
			return nil
		})
	},
}

var calcCmd = &cobra.Command{
	Use:   "calc <transform> <number>",
	Short: "Apply a number transform such as factorize or totient",
	Long: `Applies one of the plain-number transforms to a number.
Run "tally functions" for the list of transforms and their aliases.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			sessionID := rt.Config.Session.ID
			out, err := rt.Engine.Transform(ctx, sessionID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the accepted functions, transforms and REPL commands",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		md := runner.HelpMarkdown()
		if out := cmd.OutOrStdout(); out == os.Stdout && tui.IsTerminal(os.Stdout) {
			if rendered, err := tui.NewRenderer(true)(md); err == nil {
				md = rendered
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
	},
}

// addModeFlags registers the per-flag mode overrides.
func addModeFlags(c *cobra.Command) {
	c.Flags().String("angle", "", "Angle unit: deg or rad")
	c.Flags().Bool("rad", false, "Shorthand for --angle rad")
	c.Flags().Bool("rational", false, "Display results as fractions")
	c.Flags().Bool("pi", true, "Display multiples of π")
}

// modeFromFlags applies the mode flags the user set on top of base.
func modeFromFlags(cmd *cobra.Command, base domain.Mode) (domain.Mode, error) {
	mode := base.Normalize()
	flags := cmd.Flags()
	if flags.Changed("angle") {
		v, _ := flags.GetString("angle")
		angle, err := domain.ParseAngleUnit(v)
		if err != nil {
			return mode, err
		}
		mode.Angle = angle
	}
	if rad, _ := flags.GetBool("rad"); rad {
		mode.Angle = domain.Radians
	}
	if flags.Changed("rational") {
		mode.Rational, _ = flags.GetBool("rational")
	}
	if flags.Changed("pi") {
		mode.Pi, _ = flags.GetBool("pi")
	}
	return mode, nil
}

func init() {
	addModeFlags(evalCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(functionsCmd)
}
