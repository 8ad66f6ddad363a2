// Package build runs enumwrap over package directories: it registers the
// interfaces of every file, expands the union declaration files and writes
// their companion files.
package build

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"martianoff/enumwrap/internal/module"
)

// ConfigFile is looked up from the first directory handed to the builder
// up to its module root.
const ConfigFile = "enumwrap.toml"

// Environment overrides, applied after the config file.
const (
	EnvConfig = "ENUMWRAP_CONFIG"
	EnvJobs   = "ENUMWRAP_JOBS"
)

// Config holds configuration for the build system.
type Config struct {
	// BuildTag excludes declaration files from the normal build.
	// Defaults to "enumwrap".
	BuildTag string `toml:"build_tag"`

	// OutputSuffix replaces ".go" in the declaration file name to name the
	// companion file. Defaults to "_enumwrap.go".
	OutputSuffix string `toml:"output_suffix"`

	// FixImports runs the output through goimports instead of gofmt only.
	FixImports bool `toml:"fix_imports"`

	// Jobs bounds the number of files processed at once. Zero means
	// GOMAXPROCS.
	Jobs int `toml:"jobs"`

	Verbose bool `toml:"verbose"`
	LogJSON bool `toml:"json_log"`
}

// DefaultConfig returns the default build configuration.
func DefaultConfig() *Config {
	return &Config{
		BuildTag:     "enumwrap",
		OutputSuffix: "_enumwrap.go",
		FixImports:   true,
	}
}

// LoadConfig builds the configuration for a run rooted at dir: defaults,
// then the nearest enumwrap.toml between dir and its module root (or the
// file named by ENUMWRAP_CONFIG), then ENUMWRAP_JOBS. Having no
// enumwrap.toml is not an error.
func LoadConfig(dir string) (*Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return LoadConfigFile(path)
	}
	mod, _, err := module.Find(dir)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if path, ok := module.FindUp(dir, ConfigFile, mod.Root); ok {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg.fromEnv()
}

// LoadConfigFile is LoadConfig with an explicit file, which must exist.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	return cfg.fromEnv()
}

func (c *Config) fromEnv() (*Config, error) {
	if jobs := os.Getenv(EnvJobs); jobs != "" {
		n, err := strconv.Atoi(jobs)
		if err != nil {
			return nil, errors.Wrapf(err, "%s=%q", EnvJobs, jobs)
		}
		c.Jobs = n
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile overlays the keys set in a TOML file onto c.
func (c *Config) LoadFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrapf(err, "%s: failed to parse TOML", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.Newf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks the values a file or a flag may have set.
func (c *Config) Validate() error {
	if c.BuildTag == "" {
		return errors.New("build_tag must not be empty")
	}
	if c.OutputSuffix == ".go" || !strings.HasSuffix(c.OutputSuffix, ".go") || strings.HasSuffix(c.OutputSuffix, "_test.go") {
		return errors.Newf("output_suffix %q must extend the file name, end in .go and not name a test file", c.OutputSuffix)
	}
	if c.Jobs < 0 {
		return errors.Newf("jobs must not be negative, got %d", c.Jobs)
	}
	return nil
}

// OutputPath names the companion file of a declaration file:
// pets_decl.go becomes pets_decl_enumwrap.go.
func (c *Config) OutputPath(path string) string {
	return strings.TrimSuffix(path, ".go") + c.OutputSuffix
}
