package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DefaultFile is the config file looked up in the working directory
const DefaultFile = "buildtool.toml"

// Config describes all configuration options. The defaults target an x64 Release build of libcudaimg
// with Visual Studio 2022 Community.
type Config struct {
	Root          string `toml:"root" env:"ROOT" usage:"Project root containing the solution directory (detected if empty)"`
	Arch          string `toml:"arch" env:"ARCH" default:"x64" usage:"Target architecture passed to vcvarsall.bat"`
	Configuration string `toml:"configuration" env:"CONFIGURATION" default:"Release" usage:"Build configuration passed to the build tool"`
	Log           struct {
		Level string `toml:"level" env:"LEVEL" default:"info"`
		JSON  bool   `toml:"json" env:"JSON" default:"false" usage:"Output JSONND instead of pretty console messages"`
	} `toml:"log" env:"LOG"`
	Toolchain struct {
		Vcvars     string `toml:"vcvars" env:"VCVARS" default:"C:\\Program Files\\Microsoft Visual Studio\\2022\\Community\\VC\\Auxiliary\\Build\\vcvarsall.bat" usage:"Path to vcvarsall.bat"`
		MSBuildDir string `toml:"msbuild_dir" env:"MSBUILD_DIR" default:"C:\\Program Files\\Microsoft Visual Studio\\2022\\Community\\MSBuild\\Current\\Bin" usage:"Directory prepended to PATH"`
		Discover   bool   `toml:"discover" env:"DISCOVER" default:"true" usage:"Locate Visual Studio with vswhere if vcvars is missing"`
		Strict     bool   `toml:"strict" env:"STRICT" default:"true" usage:"Abort if the toolchain setup fails"`
		Cache      string `toml:"cache" env:"CACHE" default:".buildtool/vcvars.cache" usage:"Cache file for the captured toolchain environment (relative to root, empty to disable)"`
	} `toml:"toolchain" env:"TOOLCHAIN"`
	Project struct {
		Dir      string `toml:"dir" env:"DIR" default:"libcudaimg" usage:"Solution directory relative to the root"`
		Solution string `toml:"solution" env:"SOLUTION" default:"libcudaimg.sln"`
	} `toml:"project" env:"PROJECT"`
	Build struct {
		Tool string   `toml:"tool" env:"TOOL" default:"msbuild" usage:"Build tool executable"`
		Args []string `toml:"args" env:"ARGS" usage:"Extra arguments passed to the build tool"`
	} `toml:"build" env:"BUILD"`
	Artifact struct {
		Name    string `toml:"name" env:"NAME" default:"libcudaimg.dll"`
		DataDir string `toml:"data_dir" env:"DATA_DIR" default:"data" usage:"Destination directory relative to the root"`
	} `toml:"artifact" env:"ARTIFACT"`
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

var archs = map[string]bool{
	"x86":   true,
	"x64":   true,
	"amd64": true,
	"arm64": true,
}

// Loader initializes an empty config object and returns a new Loader for this object.
// If file is empty, DefaultFile is used.
func Loader(file string) (*Config, *aconfig.Loader) {
	if file == "" {
		file = DefaultFile
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CUDAIMG",
		SkipFlags: true,
		Files:     []string{file},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads the config from defaults, the given file and the environment
func Load(file string) (*Config, error) {
	cfg, loader := Loader(file)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if !archs[cfg.Arch] {
		return eris.Errorf(`Invalid value for arch: %s (must be one of x86, x64, amd64 or arm64)`, cfg.Arch)
	}

	if cfg.Configuration == "" {
		return eris.New(`configuration must not be empty`)
	}

	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	if cfg.Project.Dir == "" || cfg.Project.Solution == "" {
		return eris.New(`project.dir and project.solution must not be empty`)
	}

	if cfg.Build.Tool == "" {
		return eris.New(`build.tool must not be empty`)
	}

	if cfg.Artifact.Name == "" || cfg.Artifact.DataDir == "" {
		return eris.New(`artifact.name and artifact.data_dir must not be empty`)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
