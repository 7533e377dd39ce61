package buildsys

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Project is a located solution
type Project struct {
	Root string
	// Dir is the solution directory; build tool commands run inside it
	Dir      string
	Solution string
}

// SolutionPath returns the absolute path of the solution file
func (p Project) SolutionPath() string {
	return filepath.Join(p.Dir, p.Solution)
}

// Artifact describes where the build tool leaves the DLL and where it gets published
type Artifact struct {
	Source string
	Dest   string
}

// ArtifactFor returns the artifact layout MSBuild uses for a solution: <dir>/<arch>/<config>/<name>
func ArtifactFor(project Project, arch, configuration, name, dataDir string) Artifact {
	return Artifact{
		Source: filepath.Join(project.Dir, arch, configuration, name),
		Dest:   filepath.Join(project.Root, dataDir, name),
	}
}

// LocateProject resolves <root>/<dir> and verifies that the solution file exists there. A missing
// solution is reported as a StepError with exit code 1.
func LocateProject(root, dir, solution string) (Project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return Project{}, eris.Wrapf(err, "failed to resolve %s", root)
	}

	project := Project{
		Root:     root,
		Dir:      filepath.Join(root, dir),
		Solution: solution,
	}

	info, err := os.Stat(project.SolutionPath())
	if err != nil || !info.Mode().IsRegular() {
		if err == nil {
			err = eris.Errorf("%s is not a file", project.SolutionPath())
		} else if !eris.Is(err, os.ErrNotExist) {
			err = eris.Wrapf(err, "failed to check %s", project.SolutionPath())
		}

		return project, &StepError{
			Step:    StepLocate,
			Code:    ExitFailure,
			Message: fmt.Sprintf("Solution file %s not found!", solution),
			Err:     err,
		}
	}

	return project, nil
}

// State is a pipeline state
type State int

const (
	StateStart State = iota
	StateEnvironmentReady
	StateProjectLocated
	StateActionInvoked
	StatePublished
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateStart:            "Start",
	StateEnvironmentReady: "EnvironmentReady",
	StateProjectLocated:   "ProjectLocated",
	StateActionInvoked:    "ActionInvoked",
	StatePublished:        "Published",
	StateDone:             "Done",
	StateFailed:           "Failed",
}

func (s State) String() string {
	name, ok := stateNames[s]
	if !ok {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return name
}
