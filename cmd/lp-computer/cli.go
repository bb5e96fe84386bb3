package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ScottSallinen/lollipop-computer/algorithms/cc"
	"github.com/ScottSallinen/lollipop-computer/algorithms/degree"
	"github.com/ScottSallinen/lollipop-computer/algorithms/pagerank"
	"github.com/ScottSallinen/lollipop-computer/algorithms/sssp"
	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
	"github.com/ScottSallinen/lollipop-computer/metrics"
	"github.com/ScottSallinen/lollipop-computer/utils"
)

func BuildCLI() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "lp-computer",
		Short:         "Runs bulk synchronous vertex programs and map-reduce jobs over an edge list",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (yaml)")

	rootCmd.AddCommand(buildRunCommand(&configFile))
	rootCmd.AddCommand(buildStatsCommand())
	return rootCmd
}

func buildRunCommand(configFile *string) *cobra.Command {
	var (
		graphPath   string
		undirected  bool
		workers     int
		program     string
		source      uint32
		iterations  int
		jobNames    []string
		resultGraph string
		persist     string
		logLevel    string
		noColour    bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a computation and print the final memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("graph") {
				cfg.Graph.Path = graphPath
			}
			if flags.Changed("undirected") {
				cfg.Graph.Undirected = undirected
			}
			if flags.Changed("threads") {
				cfg.Workers = workers
			}
			if flags.Changed("program") {
				cfg.Program.Name = program
			}
			if flags.Changed("source") {
				cfg.Program.Source = source
			}
			if flags.Changed("iterations") {
				cfg.Program.MaxIterations = iterations
			}
			if flags.Changed("job") {
				cfg.Jobs = jobNames
			}
			if flags.Changed("result") {
				cfg.Result = resultGraph
			}
			if flags.Changed("persist") {
				cfg.Persist = persist
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if flags.Changed("nc") {
				cfg.Log.NoColour = noColour
			}
			if flags.Changed("metrics") {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Addr = metricsAddr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runComputation(ctx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&graphPath, "graph", "g", "", "Graph file (edge list).")
	cmd.Flags().BoolVarP(&undirected, "undirected", "u", false, "Interpret the input graph as undirected (add transpose edges).")
	cmd.Flags().IntVarP(&workers, "threads", "t", 0, "Worker count. Defaults to the number of CPUs.")
	cmd.Flags().StringVarP(&program, "program", "p", "", "Vertex program: pagerank, cc or sssp.")
	cmd.Flags().Uint32Var(&source, "source", 0, "Source vertex (raw id) for sssp.")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Iteration limit for pagerank. 0 runs to convergence.")
	cmd.Flags().StringSliceVarP(&jobNames, "job", "j", nil, "Map-reduce jobs to run: degree-distribution, count.")
	cmd.Flags().StringVar(&resultGraph, "result", "", "Result graph: original or new.")
	cmd.Flags().StringVar(&persist, "persist", "", "Persist mode: nothing, vertex_properties or edges.")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "warn, info, debug or trace.")
	cmd.Flags().BoolVar(&noColour, "nc", false, "Removes the colouring from the log output.")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "If set, serves prometheus metrics on the given address, e.g. \":9090\".")
	return cmd
}

func buildStatsCommand() *cobra.Command {
	var undirected bool
	cmd := &cobra.Command{
		Use:   "stats <graph>",
		Short: "Load an edge list and log its degree statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.LoadEdgeListFile(args[0], undirected)
			if err != nil {
				return err
			}
			g.ComputeGraphStats()
			fmt.Fprintln(cmd.OutOrStdout(), "vertices:", g.NumVertices(), "edges:", g.NumEdges())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&undirected, "undirected", "u", false, "Interpret the input graph as undirected.")
	return cmd
}

func runComputation(ctx context.Context, cfg *Config, out io.Writer) error {
	level, _ := utils.LevelFromName(cfg.Log.Level)
	utils.SetLoggerConsole(cfg.Log.NoColour)
	utils.SetLevel(level)

	g, err := graph.LoadEdgeListFile(cfg.Graph.Path, cfg.Graph.Undirected)
	if err != nil {
		return err
	}

	opts := []computer.Option{computer.WithWorkers(cfg.Workers)}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts = append(opts, computer.WithObserver(metrics.NewCollector(reg)))
		srv := metrics.NewServer(cfg.Metrics.Addr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Msg("Serving metrics on " + cfg.Metrics.Addr + "/metrics")
	}

	var res *computer.Result
	switch cfg.Program.Name {
	case "pagerank":
		pr := pagerank.New(cfg.Program.MaxIterations)
		pr.Epsilon, pr.Damping = cfg.Program.Epsilon, cfg.Program.Damping
		res, err = runWith[float64](ctx, g, cfg, pr, opts)
	case "cc":
		res, err = runWith[graph.RawType](ctx, g, cfg, cc.New(), opts)
	case "sssp":
		res, err = runWith[float64](ctx, g, cfg, sssp.New(graph.RawType(cfg.Program.Source)), opts)
	default:
		res, err = runWith[struct{}](ctx, g, cfg, nil, opts)
	}
	if err != nil {
		return err
	}
	printMemory(out, res)
	return nil
}

func runWith[M any](ctx context.Context, g *graph.Graph, cfg *Config, program computer.VertexProgram[M], opts []computer.Option) (*computer.Result, error) {
	c := computer.New[M](g, opts...)
	if program != nil {
		c.Program(program)
	}
	// Validated already.
	if cfg.Result != "" {
		rg, _ := computer.ParseResultGraph(cfg.Result)
		c.Result(rg)
	}
	if cfg.Persist != "" {
		p, _ := computer.ParsePersist(cfg.Persist)
		c.Persist(p)
	}
	for _, name := range cfg.Jobs {
		switch name {
		case "degree-distribution":
			c.MapReduce(degree.NewDistribution())
		case "count":
			c.MapReduce(degree.NewCount())
		}
	}
	return c.Run(ctx)
}

func printMemory(out io.Writer, res *computer.Result) {
	fmt.Fprintln(out, "submission:", res.Submission)
	fmt.Fprintln(out, "iterations:", res.Memory.Iteration())
	fmt.Fprintln(out, "runtime:", res.Memory.Runtime())
	for _, key := range res.Memory.Keys() {
		value, _ := res.Memory.Get(key)
		fmt.Fprintf(out, "%s: %v\n", key, value)
	}
}
