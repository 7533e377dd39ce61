package buildsys

import (
	"context"
)

// Options holds everything a pipeline needs to know about the project and the toolchain
type Options struct {
	Root          string
	Arch          string
	Configuration string

	Toolchain ToolchainOptions
	// StrictToolchain turns a failed toolchain setup into a pipeline failure
	StrictToolchain bool

	ProjectDir string
	Solution   string

	Tool     string
	ToolArgs []string

	ArtifactName string
	DataDir      string

	DryRun bool
	// Quiet hides progress bars
	Quiet bool
}

// Pipeline runs the clean or build sequence:
// Start -> EnvironmentReady -> ProjectLocated -> ActionInvoked -> [Published] -> Done.
// Any step can end the sequence in Failed.
type Pipeline struct {
	opts    Options
	runner  CommandRunner
	env     *Environment
	project Project
	history []State
}

// New creates a pipeline which starts child processes through runner with env
func New(opts Options, runner CommandRunner, env *Environment) *Pipeline {
	return &Pipeline{
		opts:    opts,
		runner:  runner,
		env:     env,
		history: []State{StateStart},
	}
}

// State returns the current state
func (p *Pipeline) State() State {
	return p.history[len(p.history)-1]
}

// History returns all states the pipeline went through
func (p *Pipeline) History() []State {
	return append([]State(nil), p.history...)
}

// Project returns the located project; only valid after ProjectLocated was reached
func (p *Pipeline) Project() Project {
	return p.project
}

func (p *Pipeline) advance(ctx context.Context, state State) {
	log(ctx).Debug().Msgf("%s -> %s", p.State(), state)
	p.history = append(p.history, state)
}

func (p *Pipeline) fail(ctx context.Context, err *StepError) error {
	p.advance(ctx, StateFailed)
	log(ctx).Error().Msg(err.Message)
	if err.Err != nil {
		log(ctx).Debug().Err(err.Err).Str("step", string(err.Step)).Msg("step failed")
	}
	return err
}

// Clean runs the build tool's Clean target
func (p *Pipeline) Clean(ctx context.Context) error {
	if err := p.prepare(ctx); err != nil {
		return err
	}

	if err := p.invoke(ctx, ActionClean); err != nil {
		return err
	}

	p.advance(ctx, StateDone)
	log(ctx).Info().Msg("Clean completed successfully!")
	return nil
}

// Build runs the default build target and publishes the artifact
func (p *Pipeline) Build(ctx context.Context) error {
	if err := p.prepare(ctx); err != nil {
		return err
	}

	if err := p.invoke(ctx, ActionBuild); err != nil {
		return err
	}

	artifact := ArtifactFor(p.project, p.opts.Arch, p.opts.Configuration, p.opts.ArtifactName, p.opts.DataDir)
	manifest, err := PublishArtifact(ctx, artifact, PublishOptions{
		Arch:          p.opts.Arch,
		Configuration: p.opts.Configuration,
		Quiet:         p.opts.Quiet,
		DryRun:        p.opts.DryRun,
	})
	if err != nil {
		return p.fail(ctx, &StepError{
			Step:    StepCopy,
			Code:    statusOf(err),
			Message: "Copy failed!",
			Err:     err,
		})
	}
	p.advance(ctx, StatePublished)

	if manifest != nil {
		log(ctx).Debug().
			Str("sha256", manifest.Sha256).
			Int64("size", manifest.Size).
			Msgf("published %s", manifest.Name)
	}

	p.advance(ctx, StateDone)
	log(ctx).Info().Msg("Build and copy completed successfully!")
	return nil
}

// prepare covers Start -> EnvironmentReady -> ProjectLocated
func (p *Pipeline) prepare(ctx context.Context) error {
	err := SetupEnvironment(ctx, p.env, p.opts.Toolchain)
	if err != nil {
		if p.opts.StrictToolchain {
			return p.fail(ctx, &StepError{
				Step:    StepToolchain,
				Code:    statusOf(err),
				Message: "Toolchain setup failed!",
				Err:     err,
			})
		}

		log(ctx).Warn().Err(err).Msg("toolchain setup failed, continuing anyway")
	}
	p.advance(ctx, StateEnvironmentReady)

	project, err := LocateProject(p.opts.Root, p.opts.ProjectDir, p.opts.Solution)
	if err != nil {
		stepErr, ok := err.(*StepError)
		if !ok {
			stepErr = &StepError{
				Step:    StepLocate,
				Code:    ExitFailure,
				Message: "Failed to locate the project!",
				Err:     err,
			}
		}
		return p.fail(ctx, stepErr)
	}
	p.project = project
	p.advance(ctx, StateProjectLocated)

	return nil
}

func (p *Pipeline) invoke(ctx context.Context, action Action) error {
	err := InvokeBuildTool(ctx, p.runner, p.env, p.project, p.opts.Tool, action, p.opts.Configuration, p.opts.ToolArgs)
	if err != nil {
		step, message := StepBuild, "Build failed!"
		if action == ActionClean {
			step, message = StepClean, "Clean failed!"
		}

		return p.fail(ctx, &StepError{
			Step:    step,
			Code:    statusOf(err),
			Message: message,
			Err:     err,
		})
	}

	p.advance(ctx, StateActionInvoked)
	return nil
}
