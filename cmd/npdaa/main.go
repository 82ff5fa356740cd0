// Command npdaa runs schedulability and data-age analysis over one or
// more DAG description files, grounded on
// original_source/src/run_analysis.cpp's OptionParser-driven main().
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/swarmguard/npdaa/internal/dataage"
	"github.com/swarmguard/npdaa/internal/errs"
	"github.com/swarmguard/npdaa/internal/explore"
	"github.com/swarmguard/npdaa/internal/ioformat"
	"github.com/swarmguard/npdaa/internal/logging"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/otelinit"
	"github.com/swarmguard/npdaa/internal/partition"
	"github.com/swarmguard/npdaa/internal/precedence"
	"github.com/swarmguard/npdaa/internal/reduction"
	"github.com/swarmguard/npdaa/internal/resilience"
	"github.com/swarmguard/npdaa/internal/timeval"
)

type cliOptions struct {
	processors  int
	timeModel   string
	timeoutSec  float64
	maxDepth    int
	naive       bool
	worstCase   bool
	header      bool
	dot         bool
	rta         bool
	continueRun bool
}

func main() {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "npdaa [files...]",
		Short: "Schedulability and data-age analysis for multi-rate task chains",
		Long: "npdaa explores the reachable schedule space of a uniprocessor (or partitioned\n" +
			"multiprocessor) task set described as a DAG of periodic tasks, reporting per-job\n" +
			"response times and end-to-end data age across declared task chains.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
		SilenceUsage: true,
	}

	flags := root.Flags()
	flags.IntVarP(&opts.processors, "processors", "m", 1, "number of processors (1..512)")
	flags.StringVarP(&opts.timeModel, "time-model", "t", "discrete", "time model: dense|discrete")
	flags.Float64VarP(&opts.timeoutSec, "timeout", "l", 0, "timeout in seconds (0 = none)")
	flags.IntVarP(&opts.maxDepth, "depth", "d", 0, "depth limit (D >= 2; 0 = no limit)")
	flags.BoolVarP(&opts.naive, "naive", "n", false, "naive exploration (no POR merging)")
	flags.BoolVarP(&opts.worstCase, "worst-case", "w", false, "worst-case overrides: BCET:=WCET, jitter:=0")
	flags.BoolVar(&opts.header, "header", false, "print the CSV summary header before the per-file lines")
	flags.BoolVarP(&opts.dot, "graph", "g", false, "emit a <input>.dot graph of per-job start/finish windows")
	flags.BoolVarP(&opts.rta, "rta", "r", false, "emit per-job response-time CSV <input>.rta.csv")
	flags.BoolVarP(&opts.continueRun, "continue", "c", false, "continue exploring after the first deadline miss")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		var code int
		if ee, ok := asExitError(err); ok {
			code = ee
		} else {
			code = 1
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}

// exitError lets run() communicate a specific exit code back to main
// without os.Exit-ing mid-batch (so deferred shutdown hooks still
// fire).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func asExitError(err error) (int, bool) {
	ee, ok := err.(*exitError)
	if !ok {
		return 0, false
	}
	return ee.code, true
}

func run(ctx context.Context, opts *cliOptions, files []string) error {
	if opts.processors < 1 || opts.processors > 512 {
		return &exitError{code: 1, err: fmt.Errorf("-m must be in [1,512], got %d", opts.processors)}
	}
	if opts.maxDepth != 0 && opts.maxDepth < 2 {
		return &exitError{code: 1, err: fmt.Errorf("-d must be >= 2 or 0 (unlimited), got %d", opts.maxDepth)}
	}
	if opts.timeModel != "dense" && opts.timeModel != "discrete" {
		return &exitError{code: 1, err: fmt.Errorf("-t must be dense or discrete, got %q", opts.timeModel)}
	}

	logger := logging.Init("npdaa")
	shutdownTrace := otelinit.InitTracer(ctx, "npdaa")
	defer otelinit.Flush(ctx, shutdownTrace)
	shutdownMetrics, _, metrics := otelinit.InitMetrics(ctx, "npdaa")
	defer func() {
		fctx, fcancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer fcancel()
		_ = shutdownMetrics(fctx)
	}()

	limiter := resilience.NewRateLimiter(int64(opts.processors), float64(opts.processors), time.Second, int64(opts.processors)*4)

	if opts.header {
		fmt.Println(ioformat.PrintHeader())
	}

	if len(files) == 0 {
		files = []string{"-"}
	}

	daFile, err := os.OpenFile("results_DA.csv", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("open results_DA.csv: %w", err)}
	}
	defer daFile.Close()

	for _, f := range files {
		data, err := readInput(f)
		if err != nil {
			return &exitError{code: 1, err: &errs.ParseError{File: f, Err: err}}
		}

		logger.Debug("analyzing file", "file", f, "time_model", opts.timeModel)
		var summary string
		if opts.timeModel == "discrete" {
			summary, err = analyzeFile[int64](ctx, f, data, opts, timeval.Discrete(), metrics, limiter, daFile)
		} else {
			summary, err = analyzeFile[float64](ctx, f, data, opts, timeval.Dense(), metrics, limiter, daFile)
		}
		if err != nil {
			return &exitError{code: errs.ExitCode(err), err: err}
		}
		fmt.Println(summary)
	}
	return nil
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// analyzeFile runs the full pipeline for one input file under a
// concrete time-value type, matching run_analysis.cpp's process_file
// (dense vs discrete chosen once, at process start, not per file).
func analyzeFile[T timeval.Numeric](
	ctx context.Context,
	fileName string,
	data []byte,
	opts *cliOptions,
	traits timeval.Traits[T],
	metrics otelinit.Metrics,
	limiter *resilience.RateLimiter,
	daFile *os.File,
) (string, error) {
	start := time.Now()

	dag, err := ioformat.ParseDAG[T](data, opts.worstCase)
	if err != nil {
		return "", &errs.ParseError{File: fileName, Err: err}
	}

	if ioformat.HasTaskChains(data) {
		if err := ioformat.ParseTaskChains[T](data, dag); err != nil {
			return "", err
		}
	} else {
		dag.FindLongestTaskChain()
	}

	dag.CalculateHyperperiod()

	jobs := model.GenerateJobSet[T](dag)
	jobSet := model.NewSet[T](jobs)

	// The reachability driver this port runs never constructs a
	// precedence-constraint list from the DAG edges: the original
	// data-age CLI builds its Scheduling_problem directly from the
	// PE-partitioned job set with no call into precedence.hpp. This
	// call therefore runs with an empty constraint list, matching
	// that data flow exactly (see DESIGN.md); internal/precedence
	// itself remains fully usable for inputs that do supply an
	// explicit constraint list.
	var constraints []precedence.Constraint
	if err := precedence.ValidateRefs[T](jobSet, constraints); err != nil {
		return "", err
	}
	if _, err := precedence.Preprocess[T](jobs, constraints, jobSet); err != nil {
		return "", err
	}

	problems := partition.BuildPartitions[T](jobs, constraints)

	maxDepth := opts.maxDepth
	if maxDepth > 0 {
		maxDepth--
	}
	exploreOpts := explore.Options[T]{
		Timeout:   time.Duration(opts.timeoutSec * float64(time.Second)),
		MaxDepth:  maxDepth,
		BeNaive:   opts.naive,
		EarlyExit: !opts.continueRun,
		Epsilon:   traits.Epsilon,
		Tolerance: traits.DeadlineMissTolerance,
		Criterion: reduction.ReleaseOrder[T]{},
	}

	agg := partition.Run[T](ctx, problems, exploreOpts, limiter, opts.processors, nil)

	metrics.FilesAnalyzed.Add(ctx, 1)
	if !agg.Schedulable {
		metrics.SchedulabilityFailures.Add(ctx, 1)
	}
	metrics.ExplorationCPUTime.Record(ctx, agg.CPUTime.Seconds())
	metrics.ExplorationFrontWidth.Record(ctx, int64(agg.MaxExplorationWidth))

	for _, chain := range dag.GetTaskChains() {
		chainTasks := make([]model.Task[T], 0, len(chain))
		for _, ti := range chain {
			chainTasks = append(chainTasks, dag.Tasks[ti])
		}
		if len(chainTasks) == 0 {
			continue
		}
		// run_analysis.cpp skips writing a results_DA.csv row for
		// chains of length 1 even though data-age analysis of a
		// degenerate chain is itself well defined; this reproduces
		// that literal output behavior.
		if len(chainTasks) == 1 {
			continue
		}
		da := dataage.New[T](jobs, agg.StartTimes, agg.FinishTimes, chainTasks, false, true)
		chainIdx := indexOfChain(dag, chain)
		label := ioformat.DataAgeLabel(filepath.Base(fileName), chainIdx)
		if _, err := daFile.WriteString(ioformat.DataAgeRow[T](label, da.GetDataAge())); err != nil {
			return "", &exitError{code: 1, err: fmt.Errorf("write results_DA.csv: %w", err)}
		}
	}

	if opts.rta {
		rtaPath := fileName + ".rta.csv"
		if fileName == "-" {
			rtaPath = "stdin.rta.csv"
		}
		if err := os.WriteFile(rtaPath, []byte(ioformat.ResponseTimesCSV[T](jobs, agg.FinishTimes)), 0644); err != nil {
			return "", &exitError{code: 1, err: fmt.Errorf("write %s: %w", rtaPath, err)}
		}
	}

	if opts.dot {
		dotPath := fileName + ".dot"
		if fileName == "-" {
			dotPath = "stdin.dot"
		}
		content, err := ioformat.WriteDOT[T](jobs, agg.StartTimes, agg.FinishTimes)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(dotPath, []byte(content), 0644); err != nil {
			return "", &exitError{code: 1, err: fmt.Errorf("write %s: %w", dotPath, err)}
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	memoryKB := float64(mem.Sys) / 1024

	return ioformat.SummaryLine(
		displayName(fileName),
		agg.Schedulable,
		false, // depth-limited invalidation is not distinguished from a clean result at this layer
		len(jobs),
		agg.NumberOfStates,
		agg.NumberOfEdges,
		agg.MaxExplorationWidth,
		time.Since(start),
		memoryKB,
		agg.TimedOut,
		opts.processors,
	), nil
}

func displayName(fileName string) string {
	if fileName == "-" {
		return "(stdin)"
	}
	return fileName
}

// indexOfChain finds the position of chain within dag.GetTaskChains(),
// used only to label results_DA.csv rows.
func indexOfChain[T timeval.Numeric](dag *model.DAG[T], chain model.TaskChain) int {
	chains := dag.GetTaskChains()
	for i, c := range chains {
		if len(c) != len(chain) {
			continue
		}
		same := true
		for j := range c {
			if c[j] != chain[j] {
				same = false
				break
			}
		}
		if same {
			return i
		}
	}
	return 0
}

