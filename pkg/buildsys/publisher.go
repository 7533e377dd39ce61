package buildsys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/cudaimg/build-tools/pkg"
)

// ManifestSuffix is appended to the published artifact's path to get its manifest path
const ManifestSuffix = ".yml"

// Manifest describes a published artifact
type Manifest struct {
	Name          string    `yaml:"name"`
	Source        string    `yaml:"source"`
	Size          int64     `yaml:"size"`
	Sha256        string    `yaml:"sha256"`
	Arch          string    `yaml:"arch"`
	Configuration string    `yaml:"configuration"`
	Published     time.Time `yaml:"published"`
}

// PublishOptions configures PublishArtifact
type PublishOptions struct {
	Arch          string
	Configuration string
	// Quiet hides the copy progress bar
	Quiet  bool
	DryRun bool
}

// PublishArtifact creates the destination directory if necessary, copies the artifact over any
// existing file and records a manifest next to it.
func PublishArtifact(ctx context.Context, artifact Artifact, opts PublishOptions) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	destDir := filepath.Dir(artifact.Dest)
	log(ctx).Info().Str("path", artifact.Dest).Msgf("copying %s to %s", artifact.Source, artifact.Dest)
	if opts.DryRun {
		return nil, nil
	}

	err := pkg.EnsureDir(destDir, true)
	if err != nil {
		return nil, err
	}

	dest, size, err := pkg.CopyFile(artifact.Source, artifact.Dest, opts.Quiet)
	if err != nil {
		return nil, err
	}

	sum, err := hashFile(dest)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Name:          filepath.Base(dest),
		Source:        artifact.Source,
		Size:          size,
		Sha256:        sum,
		Arch:          opts.Arch,
		Configuration: opts.Configuration,
		Published:     time.Now().UTC().Truncate(time.Second),
	}

	// The manifest is informational; a failure here doesn't undo the copy.
	err = WriteManifest(dest+ManifestSuffix, manifest)
	if err != nil {
		log(ctx).Warn().Err(err).Msg("failed to write manifest")
	}

	return manifest, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	hasher := sha256.New()
	_, err = io.Copy(hasher, f)
	if err != nil {
		return "", eris.Wrapf(err, "failed to hash %s", path)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func WriteManifest(path string, manifest *Manifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return eris.Wrap(err, "failed to encode manifest")
	}

	err = os.WriteFile(path, data, 0660)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}

	return nil
}

// ReadManifest loads the manifest of the artifact published at artifactPath. A missing manifest
// yields (nil, nil).
func ReadManifest(artifactPath string) (*Manifest, error) {
	path := artifactPath + ManifestSuffix
	data, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "failed to read %s", path)
	}

	var manifest Manifest
	err = yaml.Unmarshal(data, &manifest)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", path)
	}

	return &manifest, nil
}

// Verify checks that the file at artifactPath still matches the manifest
func (m *Manifest) Verify(artifactPath string) (bool, error) {
	sum, err := hashFile(artifactPath)
	if err != nil {
		return false, err
	}

	return sum == m.Sha256, nil
}
