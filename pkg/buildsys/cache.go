package buildsys

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

func init() {
	gob.Register(ToolchainCache{})
}

// ToolchainCache stores the environment captured from vcvarsall.bat
type ToolchainCache struct {
	Vcvars string
	Arch   string
	// ModTime of the vcvars script when the environment was captured
	ModTime time.Time
	Env     map[string]string
}

// Matches reports whether the cache entry was captured from the same script and arch
func (c *ToolchainCache) Matches(vcvars, arch string, modTime time.Time) bool {
	return c.Vcvars == vcvars && c.Arch == arch && c.ModTime.Equal(modTime)
}

func WriteCache(file string, entry ToolchainCache) error {
	err := os.MkdirAll(filepath.Dir(file), 0770)
	if err != nil {
		return eris.Wrapf(err, "failed to create cache directory for %s", file)
	}

	handle, err := os.Create(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	encoder := gob.NewEncoder(handle)
	return encoder.Encode(entry)
}

func ReadCache(file string) (*ToolchainCache, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	decoder := gob.NewDecoder(handle)

	var result ToolchainCache
	err = decoder.Decode(&result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}
