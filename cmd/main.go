package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cudaimg/build-tools/pkg/buildsys"
	"github.com/cudaimg/build-tools/pkg/logging"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tool",
		Short: "Build tools for libcudaimg",
		Long: `This command builds the libcudaimg CUDA library with MSBuild and copies the
resulting DLL into the data folder used by the image processing application.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default buildtool.toml)")
	rootCmd.PersistentFlags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug messages")

	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newMkdirCmd())
	rootCmd.AddCommand(newCpCmd())

	return rootCmd
}

// Execute runs the CLI with the process arguments and returns the exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return buildsys.ExitSuccess
	}

	var stepErr *buildsys.StepError
	if !eris.As(err, &stepErr) {
		// pipelines print their own failure message
		logger := logging.NewLogger(stderr, zerolog.InfoLevel, false)
		logger.Error().Msg(err.Error())
	}

	return buildsys.ExitCode(err)
}
