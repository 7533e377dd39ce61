package buildsys

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

func newTestShellRunner() (*ShellRunner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &ShellRunner{Stdout: out, Stderr: out}, out
}

func TestShellRunnerStatus(t *testing.T) {
	ctx, _ := testContext(t)
	runner, _ := newTestShellRunner()
	dir := t.TempDir()

	assert.NoError(t, runner.Run(ctx, dir, nil, []string{"true"}))

	err := runner.Run(ctx, dir, nil, []string{"false"})
	require.Error(t, err)
	assert.Equal(t, 1, statusOf(err))

	err = runner.Run(ctx, dir, nil, []string{"exit", "3"})
	require.Error(t, err)
	assert.Equal(t, 3, statusOf(err))

	assert.Error(t, runner.Run(ctx, dir, nil, nil))
}

func TestShellRunnerOutputAndLog(t *testing.T) {
	ctx, buf := testContext(t)
	runner, out := newTestShellRunner()

	err := runner.Run(ctx, t.TempDir(), nil, []string{"echo", "hello world", `C:\Program Files\x`})
	require.NoError(t, err)

	assert.Equal(t, "hello world C:\\Program Files\\x\n", out.String())
	assert.Equal(t, []string{`echo 'hello world' 'C:\Program Files\x'`}, logMessages(t, buf, "info"))
}

func TestShellRunnerPassesDirAndEnv(t *testing.T) {
	ctx, _ := testContext(t)
	dir := t.TempDir()

	var seenArgs []string
	var seenDir, seenVar string
	runner, _ := newTestShellRunner()
	runner.ExecHandler = func(ctx context.Context, args []string) error {
		hc := interp.HandlerCtx(ctx)
		seenArgs = args
		seenDir = hc.Dir
		seenVar = hc.Env.Get("CUDA_PATH").String()
		return interp.NewExitStatus(42)
	}

	err := runner.Run(ctx, dir, []string{"CUDA_PATH=/opt/cuda"}, []string{"msbuild", "libcudaimg.sln", "/p:Configuration=Release"})
	require.Error(t, err)
	assert.Equal(t, 42, statusOf(err))
	assert.Equal(t, []string{"msbuild", "libcudaimg.sln", "/p:Configuration=Release"}, seenArgs)
	assert.Equal(t, dir, seenDir)
	assert.Equal(t, "/opt/cuda", seenVar)
}

func TestShellRunnerDryRun(t *testing.T) {
	ctx, buf := testContext(t)
	runner, _ := newTestShellRunner()
	runner.DryRun = true
	runner.ExecHandler = func(ctx context.Context, args []string) error {
		t.Fatalf("dry run executed %v", args)
		return nil
	}

	require.NoError(t, runner.Run(ctx, t.TempDir(), nil, []string{"msbuild", "libcudaimg.sln"}))
	assert.Equal(t, []string{"msbuild libcudaimg.sln"}, logMessages(t, buf, "info"))
}

func TestQuoteWord(t *testing.T) {
	printer := syntax.NewPrinter(syntax.Minify(true))
	render := func(value string) string {
		buf := &bytes.Buffer{}
		word := &syntax.Word{Parts: []syntax.WordPart{quoteWord(value)}}
		require.NoError(t, printer.Print(buf, word))
		return buf.String()
	}

	assert.Equal(t, "/p:Configuration=Release", render("/p:Configuration=Release"))
	assert.Equal(t, "'a b'", render("a b"))
	assert.Equal(t, `'C:\x'`, render(`C:\x`))
	assert.Equal(t, `"it's"`, render("it's"))
}

func TestBuildToolArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"msbuild", "libcudaimg.sln", "/p:Configuration=Release"},
		BuildToolArgs("msbuild", "libcudaimg.sln", ActionBuild, "Release", nil))

	assert.Equal(t,
		[]string{"msbuild", "libcudaimg.sln", "/t:Clean", "/p:Configuration=Release", "/m"},
		BuildToolArgs("msbuild", "libcudaimg.sln", ActionClean, "Release", []string{"/m"}))
}

func TestInvokeBuildToolHonorsCancellation(t *testing.T) {
	ctx, _ := testContext(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	runner := &fakeRunner{}
	err := InvokeBuildTool(ctx, runner, NewEnvironmentFrom(nil), Project{Dir: t.TempDir(), Solution: "libcudaimg.sln"}, "msbuild", ActionBuild, "Release", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.calls)
}
