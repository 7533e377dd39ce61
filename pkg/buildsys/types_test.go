package buildsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateProject(t *testing.T) {
	root := newTestProject(t)

	project, err := LocateProject(root, "libcudaimg", "libcudaimg.sln")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "libcudaimg"), project.Dir)
	assert.Equal(t, filepath.Join(root, "libcudaimg", "libcudaimg.sln"), project.SolutionPath())
}

func TestLocateProjectMissing(t *testing.T) {
	root := t.TempDir()

	_, err := LocateProject(root, "libcudaimg", "libcudaimg.sln")
	stepErr := requireStepError(t, err, StepLocate, 1)
	assert.Equal(t, "Solution file libcudaimg.sln not found!", stepErr.Message)

	// a directory with the solution's name doesn't count
	require.NoError(t, os.MkdirAll(filepath.Join(root, "libcudaimg", "libcudaimg.sln"), 0700))
	_, err = LocateProject(root, "libcudaimg", "libcudaimg.sln")
	requireStepError(t, err, StepLocate, 1)
}

func TestArtifactFor(t *testing.T) {
	project := Project{Root: "root", Dir: filepath.Join("root", "libcudaimg"), Solution: "libcudaimg.sln"}

	artifact := ArtifactFor(project, "x64", "Release", "libcudaimg.dll", "data")
	assert.Equal(t, filepath.Join("root", "libcudaimg", "x64", "Release", "libcudaimg.dll"), artifact.Source)
	assert.Equal(t, filepath.Join("root", "data", "libcudaimg.dll"), artifact.Dest)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "EnvironmentReady", StateEnvironmentReady.String())
	assert.Equal(t, "Failed", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
}
