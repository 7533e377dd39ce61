package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cudaimg/build-tools/pkg"
	"github.com/cudaimg/build-tools/pkg/buildsys"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Shows which libcudaimg build is published in the data folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			dest := filepath.Join(s.root, s.cfg.Artifact.DataDir, s.cfg.Artifact.Name)
			manifest, err := buildsys.ReadManifest(dest)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if manifest == nil {
				fmt.Fprintf(out, "No published build found at %s\n", dest)
				return nil
			}

			pkg.PrintTask(out, dest)
			pkg.PrintSubtask(out, fmt.Sprintf("built from %s", manifest.Source))
			pkg.PrintSubtask(out, fmt.Sprintf("configuration %s (%s)", manifest.Configuration, manifest.Arch))
			pkg.PrintSubtask(out, fmt.Sprintf("published %s", manifest.Published.Local().Format("2006-01-02 15:04:05")))
			pkg.PrintSubtask(out, fmt.Sprintf("%d bytes, sha256 %s", manifest.Size, manifest.Sha256))

			ok, err := manifest.Verify(dest)
			if err != nil {
				s.logger.Warn().Err(err).Msg("could not verify the published file")
			} else if !ok {
				pkg.PrintError(out, "the file was modified after it was published")
			}

			return nil
		},
	}
}
