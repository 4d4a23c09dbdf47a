// Package config loads rule selection and parameters from
// YAML, JSON or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/go-lintpack/rulepack"
)

// candidates are the file names Discover looks for, in order.
var candidates = []string{
	".rulepack.yml",
	".rulepack.yaml",
	"rulepack.yml",
	"rulepack.yaml",
	".rulepack.json",
	".rulepack.toml",
}

// Config is the file-level configuration of a run.
type Config struct {
	// Path is the file the configuration was read from.
	// Empty for the default configuration.
	Path string

	// Rules maps rule IDs to raw parameter values.
	// Keys are lowercase, as the underlying reader folds them.
	Rules map[string]map[string]string

	Enable  []string
	Disable []string

	// Jobs limits the number of files analyzed in parallel.
	// Zero means one per CPU.
	Jobs int

	// Warnings lists parameter values that could not be read.
	// Those parameters are left out of Rules, so rules fall back
	// to their defaults.
	Warnings []rulepack.ConfigWarning
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{Rules: make(map[string]map[string]string)}
}

// Load reads the configuration file at path.
// The format is chosen by the file extension.
func Load(path string) (*Config, error) {
	// Create a new viper instance to avoid races between loads.
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	cfg.Path = path
	cfg.Jobs = v.GetInt("jobs")
	if cfg.Jobs < 0 {
		return nil, fmt.Errorf("%s: jobs must be >= 0, got %d", path, cfg.Jobs)
	}
	var err error
	if cfg.Enable, err = stringList(v, "enable"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Disable, err = stringList(v, "disable"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for id, raw := range v.GetStringMap("rules") {
		id = strings.ToLower(id)
		values := map[string]string{}
		cfg.Rules[id] = values
		if raw == nil {
			continue
		}
		params, err := cast.ToStringMapE(raw)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, rulepack.ConfigWarning{
				RuleID: id,
				Value:  fmt.Sprint(raw),
				Reason: "parameters must be a mapping, using defaults",
			})
			continue
		}
		for name, value := range params {
			s, err := scalarString(value)
			if err != nil {
				cfg.Warnings = append(cfg.Warnings, rulepack.ConfigWarning{
					RuleID: id,
					Param:  name,
					Value:  fmt.Sprint(value),
					Reason: "want a scalar value, using default",
				})
				continue
			}
			values[name] = s
		}
	}
	sort.Slice(cfg.Warnings, func(i, j int) bool {
		return cfg.Warnings[i].String() < cfg.Warnings[j].String()
	})
	return cfg, nil
}

// scalarString converts a decoded scalar into its raw string form.
func scalarString(value interface{}) (string, error) {
	switch value.(type) {
	case map[string]interface{}, map[interface{}]interface{}, []interface{}:
		return "", fmt.Errorf("unexpected %T", value)
	}
	return cast.ToStringE(value)
}

func stringList(v *viper.Viper, key string) ([]string, error) {
	if !v.IsSet(key) {
		return nil, nil
	}
	list, err := cast.ToStringSliceE(v.Get(key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return list, nil
}

// Discover looks for a configuration file in dir and its parents.
// It returns an empty path if there is none.
func Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	for {
		for _, name := range candidates {
			path := filepath.Join(abs, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// LoadOrDiscover loads path, or the file found by Discover from dir
// when path is empty. Without any file, the default is returned.
func LoadOrDiscover(path, dir string) (*Config, error) {
	if path == "" {
		found, err := Discover(dir)
		if err != nil {
			return nil, err
		}
		if found == "" {
			return Default(), nil
		}
		path = found
	}
	return Load(path)
}

// Params returns the parameters of the given rule IDs keyed by the
// IDs as spelled by the caller.
func (c *Config) Params(ids []string) map[string]map[string]string {
	params := make(map[string]map[string]string)
	for _, id := range ids {
		if values, ok := c.Rules[strings.ToLower(id)]; ok {
			params[id] = values
		}
	}
	return params
}
