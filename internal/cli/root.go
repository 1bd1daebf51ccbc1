package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

// logger is set by Execute before any command runs.
var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "textdigest",
	Short: "Authenticated text summary and bullet-point API",
	Long: `textdigest - turn text into summaries or bullet lists over HTTP

Every generated result is stored together with its input. Configuration is
read from the environment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context, log *slog.Logger) error {
	logger = log
	return rootCmd.ExecuteContext(ctx)
}
