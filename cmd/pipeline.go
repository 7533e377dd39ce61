package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cudaimg/build-tools/pkg"
	"github.com/cudaimg/build-tools/pkg/buildsys"
	"github.com/cudaimg/build-tools/pkg/config"
	"github.com/cudaimg/build-tools/pkg/logging"
)

// session bundles what every subcommand needs: config, logger and the resolved project root
type session struct {
	cfg    *config.Config
	ctx    context.Context
	logger zerolog.Logger
	root   string
	dryRun bool
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	dryRun, err := cmd.Flags().GetBool("dry")
	if err != nil {
		return nil, err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel()
	if verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	logger := logging.NewLogger(cmd.ErrOrStderr(), level, cfg.Log.JSON)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = buildsys.WithLogger(ctx, &logger)

	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "Failed to retrieve the current working directory")
		}

		root, err = pkg.FindProjectRoot(wd, cfg.Project.Dir)
		if err != nil {
			return nil, err
		}
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to resolve %s", root)
	}

	return &session{
		cfg:    cfg,
		ctx:    ctx,
		logger: logger,
		root:   root,
		dryRun: dryRun,
	}, nil
}

func (s *session) rootPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *session) pipeline(cmd *cobra.Command) *buildsys.Pipeline {
	cfg := s.cfg
	opts := buildsys.Options{
		Root:          s.root,
		Arch:          cfg.Arch,
		Configuration: cfg.Configuration,
		Toolchain: buildsys.ToolchainOptions{
			Vcvars:     cfg.Toolchain.Vcvars,
			MSBuildDir: cfg.Toolchain.MSBuildDir,
			Arch:       cfg.Arch,
			Discover:   cfg.Toolchain.Discover,
			CacheFile:  s.rootPath(cfg.Toolchain.Cache),
		},
		StrictToolchain: cfg.Toolchain.Strict,
		ProjectDir:      cfg.Project.Dir,
		Solution:        cfg.Project.Solution,
		Tool:            cfg.Build.Tool,
		ToolArgs:        cfg.Build.Args,
		ArtifactName:    cfg.Artifact.Name,
		DataDir:         cfg.Artifact.DataDir,
		DryRun:          s.dryRun,
		// progress bars only make sense on the real terminal
		Quiet: cfg.Log.JSON || cmd.OutOrStdout() != os.Stdout,
	}

	runner := buildsys.NewShellRunner(s.dryRun)
	runner.Stdout = cmd.OutOrStdout()
	runner.Stderr = cmd.ErrOrStderr()

	return buildsys.New(opts, runner, buildsys.NewEnvironment())
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Runs the Clean target of the libcudaimg solution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			return s.pipeline(cmd).Clean(s.ctx)
		},
	}
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Builds libcudaimg and copies the DLL into the data folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			return s.pipeline(cmd).Build(s.ctx)
		},
	}
}
