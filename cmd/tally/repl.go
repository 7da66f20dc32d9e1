package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tally/internal/cli"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive calculator",
	Long: `Starts a read-evaluate-print loop bound to a session.
Type an expression to evaluate it, :help for commands, :quit to leave.
When stdin is not a terminal, lines are read as a script.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd)
	},
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, replCmd} {
		c.Flags().Bool("fresh", false, "Clear the session history before starting")
		c.Flags().Bool("no-banner", false, "Do not print the banner")
		c.Flags().Bool("no-color", false, "Disable colour output")
	}
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command) error {
	return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
		sc := cli.NewSignalContext(ctx)
		defer sc.Cancel()

		fresh, _ := cmd.Flags().GetBool("fresh")
		noBanner, _ := cmd.Flags().GetBool("no-banner")
		noColor, _ := cmd.Flags().GetBool("no-color")

		// Only a reader injected with SetIn replaces the terminal.
		var in io.Reader
		if r := cmd.InOrStdin(); r != os.Stdin {
			in = r
		}

		err := cli.RunREPL(sc, rt, cli.REPLOptions{
			Fresh:    fresh,
			NoBanner: noBanner,
			NoColor:  noColor,
			In:       in,
			Out:      cmd.OutOrStdout(),
		})
		if sig := sc.Signal(); sig != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "\nInterrupted (%v)\n", sig)
		}
		return err
	})
}
