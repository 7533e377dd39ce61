package buildsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// CommandRunner executes a single command in dir and blocks until it exits. A non-zero exit status
// must be reported as an interp.ExitStatus error.
type CommandRunner interface {
	Run(ctx context.Context, dir string, env []string, args []string) error
}

// Action selects the build tool target
type Action int

const (
	ActionBuild Action = iota
	ActionClean
)

func (a Action) String() string {
	if a == ActionClean {
		return "clean"
	}
	return "build"
}

var defaultExecHandler = interp.DefaultExecHandler(2 * time.Second)

// ShellRunner runs commands through the mvdan.cc/sh interpreter
type ShellRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	// DryRun only logs the commands
	DryRun bool
	// ExecHandler replaces the default handler which starts external processes
	ExecHandler interp.ExecHandlerFunc
}

var _ CommandRunner = (*ShellRunner)(nil)

// NewShellRunner returns a runner attached to the process' stdout and stderr
func NewShellRunner(dryRun bool) *ShellRunner {
	return &ShellRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		DryRun: dryRun,
	}
}

func (r *ShellRunner) Run(ctx context.Context, dir string, env []string, args []string) error {
	if len(args) == 0 {
		return eris.New("no command given")
	}

	call := &syntax.CallExpr{Args: make([]*syntax.Word, len(args))}
	for idx, arg := range args {
		call.Args[idx] = &syntax.Word{Parts: []syntax.WordPart{quoteWord(arg)}}
	}
	stmt := &syntax.Stmt{Cmd: call}

	strBuffer := strings.Builder{}
	printer := syntax.NewPrinter(syntax.Minify(true))
	err := printer.Print(&strBuffer, stmt)
	if err != nil {
		return eris.Wrap(err, "failed to format command")
	}

	log(ctx).Info().
		Bool("command", true).
		Str("path", dir).
		Msg(strBuffer.String())

	if r.DryRun {
		return nil
	}

	handler := r.ExecHandler
	if handler == nil {
		handler = defaultExecHandler
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.ExecHandler(handler),
		interp.StdIO(nil, r.Stdout, r.Stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "Failed to initialize runner")
	}

	return runner.Run(ctx, stmt)
}

// quoteWord keeps arguments with shell metacharacters (including Windows path separators) literal
func quoteWord(value string) syntax.WordPart {
	if !strings.ContainsAny(value, " \t\n$'\"\\`*?[]{}()<>|&;#~") {
		return &syntax.Lit{Value: value}
	}

	if !strings.Contains(value, "'") {
		return &syntax.SglQuoted{Value: value}
	}

	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`").Replace(value)
	return &syntax.DblQuoted{Parts: []syntax.WordPart{&syntax.Lit{Value: escaped}}}
}

// BuildToolArgs returns the command line for the given action
func BuildToolArgs(tool, solution string, action Action, configuration string, extra []string) []string {
	args := []string{tool, solution}
	if action == ActionClean {
		args = append(args, "/t:Clean")
	}
	args = append(args, fmt.Sprintf("/p:Configuration=%s", configuration))

	return append(args, extra...)
}

// InvokeBuildTool runs the build tool for project and returns the runner's error unchanged so the
// caller can extract the exit status.
func InvokeBuildTool(ctx context.Context, runner CommandRunner, env *Environment, project Project, tool string, action Action, configuration string, extra []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	args := BuildToolArgs(tool, project.Solution, action, configuration, extra)
	return runner.Run(ctx, project.Dir, env.Vars(), args)
}
