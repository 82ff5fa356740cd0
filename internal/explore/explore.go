// Package explore implements the uniprocessor state-space explorer:
// state graph construction, merging by key + scheduled-job-set,
// eligible-successor enumeration, and the naive/merged POR dispatch
// modes. Grounded on original_source/include/uni/por_space.hpp and
// space.hpp (the latter not present in the retrieval pack; its public
// contract is reconstructed here from spec.md §4.3 and from
// por_space.hpp's actual call sites into it).
package explore

import (
	"sort"
	"time"

	"github.com/swarmguard/npdaa/internal/indexset"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/reduction"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// Problem bundles a single-PE job set with its precedence relation,
// matching por_space.hpp's Scheduling_problem (num_processors is
// always 1 at this layer; multi-PE partitioning happens in
// internal/partition, per spec.md §5's "asserts num_processors == 1").
type Problem[T timeval.Numeric] struct {
	Jobs         []model.Job[T]
	Predecessors [][]int // predecessors[jobIndex] = predecessor job indices
	Successors   [][]int // successors[jobIndex] = successor job indices
	Ancestors    []indexset.Set // ancestors[jobIndex] = transitive precedence ancestors, as an index set
}

// Options mirrors spec.md §4.3's Analysis_options.
type Options[T timeval.Numeric] struct {
	Timeout   time.Duration
	MaxDepth  int
	BeNaive   bool
	EarlyExit bool
	Epsilon   T
	Tolerance T
	Criterion reduction.Criterion[T]
}

// Result is the public contract returned by Explore, matching
// spec.md §4.3's AnalysisResult.
type Result[T timeval.Numeric] struct {
	Schedulable           bool
	TimedOut              bool
	NumberOfStates        uint64
	NumberOfEdges         uint64
	MaxExplorationWidth   uint64
	StartTimes            map[model.JobID]timeval.Interval[T]
	FinishTimes           map[model.JobID]timeval.Interval[T]
	NumberOfPORSuccesses  uint64
	NumberOfPORFailures   uint64
	CPUTime               time.Duration
}

type node[T timeval.Numeric] struct {
	scheduled              indexset.Set
	finishRange            timeval.Interval[T]
	earliestPendingRelease T
	certainJobRelease      T
	key                    uint64
	depth                  int
}

type explorer[T timeval.Numeric] struct {
	problem Problem[T]
	opts    Options[T]

	byEarliestArrival []model.Job[T] // global jobs sorted by earliest arrival, for pending scans

	statesByKey map[uint64][]*node[T]
	front       []*node[T]

	result Result[T]
}

// Explore runs the reachability exploration for one PE's job set,
// matching por_space.hpp::explore's static entry point (which first
// calls preprocess_jobs and then dispatches to explore_naively() or
// explore() based on opts.be_naive). The caller is expected to have
// already run internal/precedence.Preprocess over problem.Jobs; Explore
// itself does not re-sort or re-tighten arrivals.
func Explore[T timeval.Numeric](problem Problem[T], opts Options[T]) Result[T] {
	start := time.Now()
	ex := &explorer[T]{
		problem:     problem,
		opts:        opts,
		statesByKey: make(map[uint64][]*node[T]),
	}
	ex.byEarliestArrival = append([]model.Job[T]{}, problem.Jobs...)
	sort.Slice(ex.byEarliestArrival, func(i, j int) bool {
		return ex.byEarliestArrival[i].EarliestArrival() < ex.byEarliestArrival[j].EarliestArrival()
	})

	ex.result = Result[T]{
		Schedulable: true,
		StartTimes:  make(map[model.JobID]timeval.Interval[T]),
		FinishTimes: make(map[model.JobID]timeval.Interval[T]),
	}

	root := &node[T]{
		scheduled:   indexset.New(len(problem.Jobs)),
		finishRange: timeval.New[T](0, 0),
	}
	root.earliestPendingRelease = ex.minPendingEarliestArrival(root.scheduled)
	root.certainJobRelease = ex.certainJobRelease(root.scheduled)
	root.key = 0
	ex.statesByKey[root.key] = append(ex.statesByKey[root.key], root)
	ex.front = []*node[T]{root}
	ex.result.NumberOfStates = 1

	for len(ex.front) > 0 {
		if opts.Timeout > 0 && time.Since(start) > opts.Timeout {
			ex.result.TimedOut = true
			break
		}
		ex.sortFront()
		s := ex.front[0]
		ex.front = ex.front[1:]

		if opts.MaxDepth > 0 && s.depth >= opts.MaxDepth {
			continue
		}

		if uint64(len(ex.front)+1) > ex.result.MaxExplorationWidth {
			ex.result.MaxExplorationWidth = uint64(len(ex.front) + 1)
		}

		stop := ex.expand(s)
		if stop {
			break
		}
	}

	ex.result.CPUTime = time.Since(start)
	return ex.result
}

// sortFront keeps the open front ordered by earliest_pending_release
// then by state key, matching spec.md §4.3's determinism requirement.
func (ex *explorer[T]) sortFront() {
	sort.Slice(ex.front, func(i, j int) bool {
		a, b := ex.front[i], ex.front[j]
		if a.earliestPendingRelease != b.earliestPendingRelease {
			return a.earliestPendingRelease < b.earliestPendingRelease
		}
		return a.key < b.key
	})
}

// minPendingEarliestArrival returns the smallest earliest-arrival
// value among jobs not yet in scheduled, or the traits' infinity-ish
// sentinel (opts.Tolerance/0 model doesn't carry infinity, so callers
// pass Options.Epsilon's sibling trait value in); here we simply
// return the zero value when nothing remains, since an empty pending
// set means exploration of this branch is already finished.
func (ex *explorer[T]) minPendingEarliestArrival(scheduled indexset.Set) T {
	for _, j := range ex.byEarliestArrival {
		if !scheduled.Contains(j.Index) {
			return j.EarliestArrival()
		}
	}
	var zero T
	return zero
}

// certainJobRelease approximates "the time by which at least one more
// pending job is guaranteed to have been released": the smallest
// latest-arrival value among pending jobs. spec.md §4.3 names this
// quantity (as "certain-job-release") without defining it precisely
// and it is not present in the retrieval pack's readable source files;
// this is this port's resolution of that open question.
func (ex *explorer[T]) certainJobRelease(scheduled indexset.Set) T {
	best := ex.minPendingEarliestArrival(scheduled)
	have := false
	for _, j := range ex.problem.Jobs {
		if scheduled.Contains(j.Index) {
			continue
		}
		if !have || j.LatestArrival() < best {
			best = j.LatestArrival()
			have = true
		}
	}
	return best
}

// eligibleSuccessors enumerates pending jobs satisfying spec.md
// §4.3's (a)-(d), where nextRange = [max(finish.From(), minPendingEFT),
// max(finish.Until(), certainJobRelease)].
func (ex *explorer[T]) eligibleSuccessors(s *node[T]) ([]model.Job[T], timeval.Interval[T]) {
	minEFT := ex.minPendingEarliestArrival(s.scheduled)
	lo := s.finishRange.From()
	if minEFT > lo {
		lo = minEFT
	}
	hi := s.finishRange.Until()
	if s.certainJobRelease > hi {
		hi = s.certainJobRelease
	}
	nextRange := timeval.New(lo, hi)

	var candidates []model.Job[T]
	for _, j := range ex.problem.Jobs {
		if s.scheduled.Contains(j.Index) {
			continue
		}
		if !ex.predecessorsScheduled(j, s.scheduled) {
			continue
		}
		if j.LatestArrival() > nextRange.Until() {
			continue
		}
		candidates = append(candidates, j)
	}

	var eligible []model.Job[T]
	for _, j := range candidates {
		dominated := false
		for _, other := range candidates {
			if other.ID == j.ID {
				continue
			}
			if other.HigherPriorityThan(j) && other.LatestArrival() <= j.EarliestArrival() {
				dominated = true
				break
			}
		}
		if !dominated {
			eligible = append(eligible, j)
		}
	}
	return eligible, nextRange
}

func (ex *explorer[T]) predecessorsScheduled(j model.Job[T], scheduled indexset.Set) bool {
	for _, p := range ex.problem.Predecessors[j.Index] {
		if !scheduled.Contains(p) {
			return false
		}
	}
	return true
}

// expand advances one state: enumerates eligible successors and
// dispatches them per the active mode. Returns true if exploration
// should stop entirely (early-exit on a deadline miss).
func (ex *explorer[T]) expand(s *node[T]) bool {
	eligible, nextRange := ex.eligibleSuccessors(s)
	if len(eligible) == 0 {
		return false
	}

	if len(eligible) > 1 && !ex.opts.BeNaive {
		rset, stats := ex.createReductionSet(s, eligible)
		if stats.ReductionSuccess {
			return ex.dispatch(s, rset.Members(), true, rset)
		}
		// fall back to per-job dispatch, matching spec.md §4.3's
		// merged-mode fallback when POR cannot close the set
	}

	// Naive mode dispatches one job at a time but still participates
	// in the global key-based state merge, matching spec.md §4.3's
	// literal wording for -n (por_space.hpp's schedule_naive instead
	// skips the merge lookup entirely).
	_ = nextRange
	for _, j := range eligible {
		if ex.dispatch(s, []model.Job[T]{j}, false, nil) {
			return true
		}
	}
	return false
}

// createReductionSet runs the fixed-point growth loop of spec.md
// §4.4 steps 1-4, matching por_space.hpp's create_reduction_set.
func (ex *explorer[T]) createReductionSet(s *node[T], eligible []model.Job[T]) (*reduction.Set[T], reduction.Statistics) {
	rset := reduction.New(eligible, s.finishRange, ex.problem.Predecessors, ex.problem.Successors, ex.opts.Epsilon, len(ex.problem.Jobs))

	for {
		if rset.HasPotentialDeadlineMisses(ex.opts.Tolerance) {
			ex.result.NumberOfPORFailures++
			return rset, reduction.Statistics{ReductionSuccess: false, NumJobs: len(rset.Members())}
		}

		minWCET := rset.GetMinWCET()
		searchUpto := rset.LatestBusyTime() - minWCET

		var candidates []model.Job[T]
		for _, j := range ex.problem.Jobs {
			if s.scheduled.Contains(j.Index) || memberOf(rset, j) || j.EarliestArrival() > searchUpto {
				continue
			}
			if rset.CanInterfere(j, ex.problem.Ancestors[j.Index], s.scheduled, ex.opts.Tolerance) {
				candidates = append(candidates, j)
			}
		}
		if len(candidates) == 0 {
			ex.result.NumberOfPORSuccesses++
			return rset, reduction.Statistics{ReductionSuccess: true, NumJobs: len(rset.Members())}
		}
		chosen := ex.opts.Criterion.SelectJob(candidates)
		rset.AddJob(chosen)
	}
}

func memberOf[T timeval.Numeric](rset *reduction.Set[T], j model.Job[T]) bool {
	for _, m := range rset.Members() {
		if m.ID == j.ID {
			return true
		}
	}
	return false
}

// dispatch emits one schedule-graph edge for a dispatched unit (either
// a single job or a whole reduction set), attempting the key-based
// state merge before creating a brand-new successor state. Returns
// true if a deadline miss with early_exit stops the whole exploration.
func (ex *explorer[T]) dispatch(s *node[T], jobs []model.Job[T], isReductionSet bool, rset *reduction.Set[T]) bool {
	var finishRange timeval.Interval[T]
	if isReductionSet {
		finishRange = timeval.New(rset.EarliestFinishTime(), rset.LatestBusyTime())
	} else {
		j := jobs[0]
		ef := s.finishRange.From()
		if j.EarliestArrival() > ef {
			ef = j.EarliestArrival()
		}
		ef += j.LeastCost()
		lf := s.finishRange.Until()
		if j.LatestArrival() > lf {
			lf = j.LatestArrival()
		}
		lf += j.MaximalCost()
		finishRange = timeval.New(ef, lf)
	}

	newScheduled := s.scheduled.Clone()
	var nextKey uint64 = s.key
	for _, j := range jobs {
		newScheduled.Add(j.Index)
		nextKey ^= j.Key()
	}

	stop := ex.recordDeadlines(jobs, s, isReductionSet, rset)

	for _, candidate := range ex.statesByKey[nextKey] {
		if candidate.scheduled.Equal(newScheduled) && candidate.finishRange.Intersects(finishRange) {
			candidate.finishRange = candidate.finishRange.Widen(finishRange)
			ex.result.NumberOfEdges++
			return stop
		}
	}

	succ := &node[T]{
		scheduled:   newScheduled,
		finishRange: finishRange,
		depth:       s.depth + 1,
	}
	succ.earliestPendingRelease = ex.minPendingEarliestArrival(newScheduled)
	succ.certainJobRelease = ex.certainJobRelease(newScheduled)
	succ.key = nextKey
	ex.statesByKey[nextKey] = append(ex.statesByKey[nextKey], succ)
	ex.front = append(ex.front, succ)
	ex.result.NumberOfStates++
	ex.result.NumberOfEdges++

	return stop
}

// recordDeadlines widens the global per-job start/finish tables and
// flags unschedulable runs, matching spec.md §4.3's finish-time
// update + deadline check.
func (ex *explorer[T]) recordDeadlines(jobs []model.Job[T], s *node[T], isReductionSet bool, rset *reduction.Set[T]) bool {
	for _, j := range jobs {
		var earliestStart, latestStart, earliestFinish, latestFinish T
		if isReductionSet {
			earliestStart = rset.EarliestStartTime()
			if lst, ok := rset.GetLatestStartTime(j); ok {
				latestStart = lst
			} else {
				latestStart = rset.LatestStartTime()
			}
			earliestFinish = rset.EarliestFinishTimeJob(j)
			latestFinish = rset.LatestFinishTime(j)
		} else {
			earliestStart = s.finishRange.From()
			if j.EarliestArrival() > earliestStart {
				earliestStart = j.EarliestArrival()
			}
			latestStart = s.finishRange.Until()
			if j.LatestArrival() > latestStart {
				latestStart = j.LatestArrival()
			}
			earliestFinish = earliestStart + j.LeastCost()
			latestFinish = latestStart + j.MaximalCost()
		}

		widenTable(ex.result.StartTimes, j.ID, timeval.New(earliestStart, latestStart))
		widenTable(ex.result.FinishTimes, j.ID, timeval.New(earliestFinish, latestFinish))

		if j.ExceedsDeadline(latestFinish, ex.opts.Tolerance) {
			ex.result.Schedulable = false
			if ex.opts.EarlyExit {
				return true
			}
		}
	}
	return false
}

func widenTable[T timeval.Numeric](table map[model.JobID]timeval.Interval[T], id model.JobID, iv timeval.Interval[T]) {
	if existing, ok := table[id]; ok {
		table[id] = existing.Widen(iv)
	} else {
		table[id] = iv
	}
}
