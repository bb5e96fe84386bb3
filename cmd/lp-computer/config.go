package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"

	multierror "github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/ScottSallinen/lollipop-computer/algorithms/pagerank"
	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/utils"
)

// Config is the yaml config file. Command line flags override it.
type Config struct {
	Graph struct {
		Path       string `yaml:"path"`
		Undirected bool   `yaml:"undirected"`
	} `yaml:"graph"`

	Workers int `yaml:"workers"`

	Program struct {
		Name          string  `yaml:"name"`           // pagerank, cc, sssp, or empty for jobs only.
		Source        uint32  `yaml:"source"`         // sssp
		MaxIterations int     `yaml:"max_iterations"` // pagerank
		Epsilon       float64 `yaml:"epsilon"`        // pagerank
		Damping       float64 `yaml:"damping"`        // pagerank
	} `yaml:"program"`

	Result  string   `yaml:"result"`  // original or new; empty lets the program decide.
	Persist string   `yaml:"persist"` // nothing, vertex_properties or edges.
	Jobs    []string `yaml:"jobs"`

	Log struct {
		Level    string `yaml:"level"`
		NoColour bool   `yaml:"no_colour"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

var (
	programs = []string{"pagerank", "cc", "sssp"}
	jobs     = []string{"degree-distribution", "count"}
)

func defaultConfig() *Config {
	cfg := &Config{Workers: runtime.NumCPU()}
	cfg.Program.Epsilon = pagerank.EPSILON
	cfg.Program.Damping = pagerank.DAMPINGFACTOR
	cfg.Log.Level = "info"
	cfg.Metrics.Addr = ":9090"
	return cfg
}

// Reads path over the defaults. An empty path keeps the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem with the config at once.
func (c *Config) Validate() error {
	var err error
	if c.Graph.Path == "" {
		err = multierror.Append(err, errors.New("graph path not specified"))
	}
	if c.Workers <= 0 {
		err = multierror.Append(err, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Program.Name != "" && !slices.Contains(programs, c.Program.Name) {
		err = multierror.Append(err, fmt.Errorf("unknown program %q", c.Program.Name))
	}
	if c.Program.Name == "" && len(c.Jobs) == 0 {
		err = multierror.Append(err, errors.New("neither a program nor a job specified"))
	}
	for _, j := range c.Jobs {
		if !slices.Contains(jobs, j) {
			err = multierror.Append(err, fmt.Errorf("unknown job %q", j))
		}
	}
	if c.Program.Damping <= 0 || c.Program.Damping >= 1 {
		err = multierror.Append(err, fmt.Errorf("damping must be in (0, 1), got %v", c.Program.Damping))
	}
	if c.Result != "" {
		if _, perr := computer.ParseResultGraph(c.Result); perr != nil {
			err = multierror.Append(err, perr)
		}
	}
	if c.Persist != "" {
		if _, perr := computer.ParsePersist(c.Persist); perr != nil {
			err = multierror.Append(err, perr)
		}
	}
	if _, lerr := utils.LevelFromName(c.Log.Level); lerr != nil {
		err = multierror.Append(err, lerr)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		err = multierror.Append(err, errors.New("metrics enabled without an address"))
	}
	return err
}
