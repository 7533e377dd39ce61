package buildsys

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Environment is the process environment seen by the child processes of a pipeline. Overrides
// win over the inherited variables.
type Environment struct {
	base      []string
	overrides map[string]string
}

// NewEnvironment creates an Environment which inherits the current process environment
func NewEnvironment() *Environment {
	return NewEnvironmentFrom(os.Environ())
}

// NewEnvironmentFrom creates an Environment on top of the given KEY=VALUE list
func NewEnvironmentFrom(base []string) *Environment {
	return &Environment{
		base:      base,
		overrides: make(map[string]string),
	}
}

func normalizeKey(key string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(key)
	}
	return key
}

// Get returns the value of key, preferring overrides
func (e *Environment) Get(key string) string {
	key = normalizeKey(key)
	if value, ok := e.overrides[key]; ok {
		return value
	}

	for _, item := range e.base {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) == 2 && normalizeKey(parts[0]) == key {
			return parts[1]
		}
	}

	return ""
}

// Set overrides key
func (e *Environment) Set(key, value string) {
	e.overrides[normalizeKey(key)] = value
}

// Merge copies all entries of vars into the overrides
func (e *Environment) Merge(vars map[string]string) {
	for k, v := range vars {
		e.Set(k, v)
	}
}

// Overrides returns a copy of the override map
func (e *Environment) Overrides() map[string]string {
	result := make(map[string]string, len(e.overrides))
	for k, v := range e.overrides {
		result[k] = v
	}
	return result
}

// PrependPath puts dir in front of the PATH search list
func (e *Environment) PrependPath(dir string) string {
	path := e.Get("PATH")
	dir = filepath.Clean(dir)
	if path == "" {
		e.Set("PATH", dir)
	} else {
		e.Set("PATH", dir+string(os.PathListSeparator)+path)
	}

	return e.Get("PATH")
}

// Vars returns the KEY=VALUE list passed to child processes
func (e *Environment) Vars() []string {
	shellEnv := make([]string, 0, len(e.base)+len(e.overrides))
	for _, item := range e.base {
		parts := strings.SplitN(item, "=", 2)

		// skip overriden entries to avoid conflicts
		if _, present := e.overrides[normalizeKey(parts[0])]; !present {
			shellEnv = append(shellEnv, item)
		}
	}

	keys := make([]string, 0, len(e.overrides))
	for k := range e.overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		shellEnv = append(shellEnv, fmt.Sprintf("%s=%s", k, e.overrides[k]))
	}

	return shellEnv
}
