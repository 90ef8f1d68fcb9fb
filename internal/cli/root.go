// Package cli defines the command surface.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/flakeup-dev/flakeup/internal/session"
	"github.com/flakeup-dev/flakeup/internal/ui"
)

// Execute runs the root command and maps its outcome to an exit code.
func Execute(version string) int {
	if err := NewRootCommand(version).Execute(); err != nil {
		// Session failures have already been reported in detail.
		if !errors.Is(err, session.ErrFailed) {
			ui.Error("%v", err)
		}
		return 1
	}
	return 0
}

func NewRootCommand(version string) *cobra.Command {
	var cfg session.Config

	rootCmd := &cobra.Command{
		Use:   "flakeup",
		Short: "Interactively update Nix flake inputs",
		Long: `Flakeup finds flake checkouts reachable from the Nix garbage collector
roots (or takes one explicit target), checks each input against its
upstream, and walks you through applying the update hunk by hunk:
rewrite flake.nix, regenerate flake.lock, refresh direnv, commit.

Without --write the whole workflow is a dry run: every prompt appears,
nothing is modified.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfg.Input, "input", "i", "", "Restrict the workflow to one input name")

	listCmd := &cobra.Command{
		Use:   "list [path[#input]]",
		Short: "Show current and latest input references without proposing edits",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Target = args[0]
			}
			return session.New(cfg).List(cmd.Context())
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update [path[#input]]",
		Short: "Review and apply input updates hunk by hunk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Target = args[0]
			}
			return session.New(cfg).Update(cmd.Context())
		},
	}
	updateCmd.Flags().BoolVarP(&cfg.Write, "write", "w", false, "Write files and run commands (default: dry run)")
	updateCmd.Flags().IntVarP(&cfg.Context, "context", "C", 3, "Lines of context around each hunk")

	rootCmd.AddCommand(listCmd, updateCmd)
	return rootCmd
}
