package cmd

import (
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cudaimg/build-tools/pkg"
)

func newCpCmd() *cobra.Command {
	cpCmd := &cobra.Command{
		Use:   "cp",
		Short: "Cross-platform implementation of the POSIX cp command (files only, always overwrites)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return eris.New("Not enough parameters")
			}

			dest := filepath.Clean(args[len(args)-1])
			items := []string{}
			if runtime.GOOS == "windows" {
				for _, arg := range args[:len(args)-1] {
					matches, err := filepath.Glob(arg)
					if err != nil {
						return eris.Wrapf(err, "Failed to resolve parameter %s", arg)
					}

					if matches == nil {
						return eris.Errorf("Pattern %s produced no matches!", arg)
					}

					items = append(items, matches...)
				}
			} else {
				items = args[:len(args)-1]
			}

			if len(items) > 1 {
				err := pkg.EnsureDir(dest, false)
				if err != nil {
					return eris.Wrapf(err, "Can't copy multiple items to %s", dest)
				}
			}

			quiet, err := cmd.Flags().GetBool("quiet")
			if err != nil {
				return err
			}

			for _, item := range items {
				_, _, err := pkg.CopyFile(item, dest, quiet)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}

	cpCmd.Flags().BoolP("quiet", "q", false, "hide the progress bar")
	return cpCmd
}

func newMkdirCmd() *cobra.Command {
	mkdirCmd := &cobra.Command{
		Use:   "mkdir",
		Short: "A cross-platform implementation of the POSIX mkdir command",
		RunE: func(cmd *cobra.Command, args []string) error {
			makeParents, err := cmd.Flags().GetBool("parents")
			if err != nil {
				return err
			}

			for _, item := range args {
				err = pkg.EnsureDir(item, makeParents)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}

	mkdirCmd.Flags().BoolP("parents", "p", false, "create parent directories as needed")
	return mkdirCmd
}
