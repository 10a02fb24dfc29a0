package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// NewRootCommand builds the reelshelf command tree.
func NewRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "reelshelf",
		Short:         "Index a local video library into a searchable catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	flags.BoolVar(&ctx.jsonFlag, "json", false, "Write machine-readable JSON instead of tables")

	rootCmd.AddCommand(
		newScanCommand(ctx),
		newListCommand(ctx),
		newSearchCommand(ctx),
		newShowCommand(ctx),
		newRelinkCommand(ctx),
		newProgressCommand(ctx),
		newValidatePostersCommand(ctx),
		newServeCommand(ctx),
		newConfigCommand(ctx),
		newVersionCommand(ctx),
	)

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations[annotationSkipConfig] == "true" {
			return true
		}
	}
	return false
}

const annotationSkipConfig = "skipConfigLoad"

var skipConfig = map[string]string{annotationSkipConfig: "true"}
