package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tally/internal/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove the sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			sessions, err := rt.Engine.Sessions().List(ctx)
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			fmt.Fprintln(out, "Sessions:")
			for _, s := range sessions {
				fmt.Fprintln(out, "- "+s)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the state of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			state, err := rt.Engine.FindSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading session '%s': %w", args[0], err)
			}

			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print the calculation history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			state, err := rt.Engine.FindSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading session '%s': %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if len(state.History) == 0 {
				fmt.Fprintln(out, "(no history)")
			}
			for i, h := range state.History {
				fmt.Fprintf(out, "%3d  %s = %s\n", i+1, h.Expression, h.Result)
			}
			return nil
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id]...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("name at least one session or pass --all")
		}

		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			ids := args
			if all {
				var err error
				if ids, err = rt.Engine.Sessions().List(ctx); err != nil {
					return fmt.Errorf("listing sessions: %w", err)
				}
			}

			var errs []error
			for _, id := range ids {
				if err := rt.Engine.DeleteSession(ctx, id); err != nil {
					errs = append(errs, fmt.Errorf("removing '%s': %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
			}
			return errors.Join(errs...)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
}
