package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoComponents = `0 3
3 7
7 8
8 9
9 0
1 2
2 4
4 5
5 6
`

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()
	assert.Equal(t, "lp-computer", cmd.Use)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"], "Should have 'run' command")
	assert.True(t, names["stats"], "Should have 'stats' command")

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
graph:
  path: edges.txt
  undirected: true
workers: 3
program:
  name: pagerank
  max_iterations: 10
jobs: [count]
log:
  level: debug
metrics:
  enabled: true
  addr: ":9191"
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "edges.txt", cfg.Graph.Path)
	assert.True(t, cfg.Graph.Undirected)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "pagerank", cfg.Program.Name)
	assert.Equal(t, 10, cfg.Program.MaxIterations)
	assert.Equal(t, 0.85, cfg.Program.Damping, "unset fields keep their defaults")
	assert.Equal(t, []string{"count"}, cfg.Jobs)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeFile(t, "bad.yaml", "workers: [not, a, number]"))
	assert.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := defaultConfig()
	cfg.Workers = -1
	cfg.Program.Name = "bogus"
	cfg.Jobs = []string{"nope"}
	cfg.Persist = "sometimes"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	// graph path, workers, program, job, persist, log level
	assert.Len(t, merr.Errors, 6)
}

func TestRunConnectedComponents(t *testing.T) {
	path := writeFile(t, "edges.txt", twoComponents)
	out, err := execute(t, "run", "-g", path, "-u", "-p", "cc", "-j", "count", "-t", "2", "--log-level", "warn", "--nc")
	require.NoError(t, err)
	assert.Contains(t, out, "cc.sizes: map[0:5 1:5]")
	assert.Contains(t, out, "degree.counts: {10 18 2}")
	assert.Contains(t, out, "cc.changed: false")
}

func TestRunFromConfigFile(t *testing.T) {
	edges := writeFile(t, "edges.txt", twoComponents)
	config := writeFile(t, "config.yaml", `
graph:
  path: `+edges+`
workers: 2
jobs: [degree-distribution]
log:
  level: warn
  no_colour: true
`)
	out, err := execute(t, "run", "-c", config)
	require.NoError(t, err)
	assert.Contains(t, out, "iterations: 0")
	assert.Contains(t, out, "degree.distribution: [{0 1} {1 9}]")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, "run", "-p", "cc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph path not specified")
}

func TestStats(t *testing.T) {
	path := writeFile(t, "edges.txt", twoComponents)
	out, err := execute(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "vertices: 10 edges: 9")
}
