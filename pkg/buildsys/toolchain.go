package buildsys

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
)

const (
	vsWherePath = "C:\\Program Files (x86)\\Microsoft Visual Studio\\Installer\\vswhere.exe"
	envMarker   = "CUDAIMG_ENV_BEGIN"
)

// ToolchainOptions configures SetupEnvironment
type ToolchainOptions struct {
	// Vcvars is the path to vcvarsall.bat
	Vcvars string
	// MSBuildDir is prepended to PATH after the vcvars environment has been loaded
	MSBuildDir string
	Arch       string
	// Discover enables the vswhere lookup when Vcvars doesn't exist
	Discover bool
	// CacheFile stores the captured environment; empty disables caching
	CacheFile string
}

// Overridden in tests
var (
	hostOS           = runtime.GOOS
	findVisualStudio = runVswhere
	captureVcvars    = runVcvarsHelper
)

// SetupEnvironment loads the MSVC environment for opts.Arch into env and prepends the MSBuild
// binary directory to PATH. On hosts other than Windows only the PATH is modified.
func SetupEnvironment(ctx context.Context, env *Environment, opts ToolchainOptions) error {
	msbuildDir := opts.MSBuildDir

	if hostOS != "windows" {
		log(ctx).Warn().Msgf("skipping vcvarsall.bat since this is %s", hostOS)
	} else {
		vsPath, err := loadVcvars(ctx, env, opts)
		if err != nil {
			return err
		}

		if vsPath != "" && !isDir(msbuildDir) {
			msbuildDir = filepath.Join(vsPath, "MSBuild", "Current", "Bin")
		}
	}

	if msbuildDir != "" {
		path := env.PrependPath(msbuildDir)
		log(ctx).Debug().Str("path", path).Msgf("added %s to PATH", msbuildDir)
	}

	return nil
}

func isDir(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// loadVcvars returns the discovered VS installation path, if discovery was necessary
func loadVcvars(ctx context.Context, env *Environment, opts ToolchainOptions) (string, error) {
	vcvars := opts.Vcvars
	vsPath := ""

	_, err := os.Stat(vcvars)
	if err != nil {
		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(err, "failed to check %s", vcvars)
		}

		if !opts.Discover {
			return "", eris.Wrapf(err, "could not find %s", vcvars)
		}

		log(ctx).Info().Msgf("%s not found, looking for Visual Studio", vcvars)
		vsPath, err = findVisualStudio(ctx)
		if err != nil {
			return "", err
		}

		vcvars = filepath.Join(vsPath, "VC", "Auxiliary", "Build", "vcvarsall.bat")
	}

	info, err := os.Stat(vcvars)
	if err != nil {
		return "", eris.Wrap(err, "could not find vcvarsall.bat")
	}

	if opts.CacheFile != "" {
		cache, err := ReadCache(opts.CacheFile)
		if err == nil && cache.Matches(vcvars, opts.Arch, info.ModTime()) {
			log(ctx).Debug().Str("path", opts.CacheFile).Msg("using cached toolchain environment")
			env.Merge(cache.Env)
			return vsPath, nil
		}
	}

	log(ctx).Info().Str("path", vcvars).Msgf("loading %s environment from %s", opts.Arch, vcvars)
	captured, err := captureVcvars(ctx, vcvars, opts.Arch, env.Vars())
	if err != nil {
		return "", err
	}

	env.Merge(captured)

	if opts.CacheFile != "" {
		err = WriteCache(opts.CacheFile, ToolchainCache{
			Vcvars:  vcvars,
			Arch:    opts.Arch,
			ModTime: info.ModTime(),
			Env:     captured,
		})
		if err != nil {
			log(ctx).Warn().Err(err).Msg("failed to write toolchain cache")
		}
	}

	return vsPath, nil
}

func runVswhere(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, vsWherePath, "-property", "installationPath", "-latest")
	output, err := cmd.Output()
	if err != nil {
		return "", eris.Wrapf(err, "failed to run %s", vsWherePath)
	}

	vsPath := strings.Trim(string(output), " \r\n")
	if vsPath == "" {
		return "", eris.New("No Visual Studio installation found. If you recently updated VS, you might have to restart your PC.")
	}

	if !isDir(vsPath) {
		return "", eris.Errorf("the detected VS installation path %s does not exist", vsPath)
	}

	return vsPath, nil
}

// runVcvarsHelper calls vcvarsall.bat from a helper script and returns the environment it produced
func runVcvarsHelper(ctx context.Context, vcvars, arch string, environ []string) (map[string]string, error) {
	tmpDir := filepath.Join(os.TempDir(), fmt.Sprintf("cudaimg-build-%s", nanoid.New()))
	err := os.Mkdir(tmpDir, 0700)
	if err != nil {
		return nil, eris.Wrap(err, "could not create temporary directory")
	}
	defer os.RemoveAll(tmpDir)

	script := filepath.Join(tmpDir, "vchelper.bat")
	err = os.WriteFile(script, []byte(`@echo off
call "`+vcvars+`" %*
if errorlevel 1 exit /b %errorlevel%
echo `+envMarker+`
set
`), 0700)
	if err != nil {
		return nil, eris.Wrap(err, "failed to write helper script")
	}

	cmd := exec.CommandContext(ctx, "cmd", "/C", script, arch)
	cmd.Env = environ
	cmd.Stderr = os.Stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, eris.Wrap(err, "failed to run helper script")
	}

	captured := parseEnvOutput(string(output))
	if len(captured) == 0 {
		return nil, eris.Errorf("%s did not produce an environment", vcvars)
	}

	return captured, nil
}

// parseEnvOutput extracts the KEY=VALUE lines printed after envMarker
func parseEnvOutput(output string) map[string]string {
	result := make(map[string]string)
	found := false

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if !found {
			found = line == envMarker
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		// cmd lists a few internal variables like "=C:=C:\" which start with =
		if len(parts) < 2 || parts[0] == "" {
			continue
		}

		result[parts[0]] = parts[1]
	}

	return result
}
