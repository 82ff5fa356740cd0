package partition

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/swarmguard/npdaa/internal/explore"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/resilience"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// Result pairs one PE's exploration result with the PE id it was
// computed for.
type Result[T timeval.Numeric] struct {
	PE     uint64
	Result explore.Result[T]
}

// Aggregate combines every partition's result into the one line the
// CLI driver reports per input file.
type Aggregate[T timeval.Numeric] struct {
	Schedulable         bool
	TimedOut            bool
	NumberOfStates      uint64
	NumberOfEdges       uint64
	MaxExplorationWidth uint64
	StartTimes          map[model.JobID]timeval.Interval[T]
	FinishTimes         map[model.JobID]timeval.Interval[T]
	CPUTime             time.Duration
	PerPE               []Result[T]
}

// Run explores every PE's partition, bounding how many run
// concurrently with a worker pool plus an optional rate limiter,
// grounded on dag_engine.go's worker+coordinator split. Each worker
// owns its explorer instance exclusively (explore.Explore allocates a
// fresh one per call), matching spec.md §5's "no shared mutable state
// between them" for per-PE analyses.
func Run[T timeval.Numeric](ctx context.Context, problems map[uint64]explore.Problem[T], opts explore.Options[T], limiter *resilience.RateLimiter, maxWorkers int, meter metric.Meter) Aggregate[T] {
	runID := uuid.NewString()
	tracer := otel.Tracer("npdaa")
	ctx, span := tracer.Start(ctx, "partition.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("partitions", len(problems)),
		),
	)
	defer span.End()

	type unit struct {
		pe      uint64
		problem explore.Problem[T]
	}
	units := make(chan unit, len(problems))
	for pe, p := range problems {
		units <- unit{pe: pe, problem: p}
	}
	close(units)

	results := make(chan Result[T], len(problems))

	workers := maxWorkers
	if workers <= 0 || workers > len(problems) {
		workers = len(problems)
	}
	if workers == 0 {
		workers = 1
	}

	var parallelism metric.Int64UpDownCounter
	if meter != nil {
		parallelism, _ = meter.Int64UpDownCounter("npdaa_partition_parallelism")
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range units {
				if limiter != nil {
					if err := limiter.AcquirePartitionSlot(ctx); err != nil {
						results <- Result[T]{PE: u.pe, Result: explore.Result[T]{}}
						continue
					}
				}
				if parallelism != nil {
					parallelism.Add(ctx, 1)
				}
				_, peSpan := tracer.Start(ctx, "partition.explore",
					trace.WithAttributes(attribute.Int64("pe", int64(u.pe))))
				res := explore.Explore(u.problem, opts)
				peSpan.End()
				if parallelism != nil {
					parallelism.Add(ctx, -1)
				}
				results <- Result[T]{PE: u.pe, Result: res}
			}
		}()
	}
	wg.Wait()
	close(results)

	agg := Aggregate[T]{
		Schedulable: true,
		StartTimes:  make(map[model.JobID]timeval.Interval[T]),
		FinishTimes: make(map[model.JobID]timeval.Interval[T]),
	}
	for r := range results {
		agg.PerPE = append(agg.PerPE, r)
		if !r.Result.Schedulable {
			agg.Schedulable = false
		}
		if r.Result.TimedOut {
			agg.TimedOut = true
		}
		agg.NumberOfStates += r.Result.NumberOfStates
		agg.NumberOfEdges += r.Result.NumberOfEdges
		if r.Result.MaxExplorationWidth > agg.MaxExplorationWidth {
			agg.MaxExplorationWidth = r.Result.MaxExplorationWidth
		}
		agg.CPUTime += r.Result.CPUTime
		for id, iv := range r.Result.StartTimes {
			agg.StartTimes[id] = iv
		}
		for id, iv := range r.Result.FinishTimes {
			agg.FinishTimes[id] = iv
		}
	}
	sort.Slice(agg.PerPE, func(i, j int) bool { return agg.PerPE[i].PE < agg.PerPE[j].PE })
	return agg
}
