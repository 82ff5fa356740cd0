// Package reduction implements the partial-order-reduction core:
// aggregating commuting eligible jobs into a single reduction set and
// computing its latest busy time, latest idle time, per-job latest
// start times, and interference admissibility. Grounded on
// original_source/include/uni/reduction_set.hpp.
package reduction

import (
	"sort"

	"github.com/swarmguard/npdaa/internal/indexset"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// Set is the reduction set R: an aggregate of jobs that can be
// dispatched in any order without changing observable response-time
// bounds, once closed (see Set.HasPotentialDeadlineMisses /
// the growth loop in internal/explore's createReductionSet).
type Set[T timeval.Numeric] struct {
	jobs       []model.Job[T]   // members, insertion order
	byLatest   []model.Job[T]   // sorted ascending by LatestArrival
	byEarliest []model.Job[T]   // sorted ascending by EarliestArrival
	byWCET     []model.Job[T]   // sorted ascending by MaximalCost

	cpuAvailability timeval.Interval[T]
	predecessors    [][]int // global: predecessors[jobIndex] = predecessor job indices
	successors      [][]int // global: successors[jobIndex] = successor job indices
	epsilon         T
	capacity        int // total job count in the owning partition, for indexset sizing

	latestBusyTime      T
	latestIdleTime      T
	latestIdleTimeValid bool
	latestStartTimes    map[int]T // keyed by job.Index
	maxPriorityValue    T
	key                 uint64
}

// New builds a reduction set from its initial member list (the
// eligible-successor set E), matching reduction_set.hpp's constructor.
// predecessors/successors are the DAG-wide precedence relation indexed
// by job position (shared across the whole exploration, not
// recomputed per reduction set).
func New[T timeval.Numeric](members []model.Job[T], cpuAvailability timeval.Interval[T], predecessors, successors [][]int, epsilon T, capacity int) *Set[T] {
	s := &Set[T]{
		cpuAvailability: cpuAvailability,
		predecessors:    predecessors,
		successors:      successors,
		epsilon:         epsilon,
		capacity:        capacity,
	}
	for _, j := range members {
		s.jobs = append(s.jobs, j)
	}
	s.rebuildSortedViews()
	s.recompute()
	return s
}

func (s *Set[T]) rebuildSortedViews() {
	s.byLatest = append([]model.Job[T]{}, s.jobs...)
	sort.Slice(s.byLatest, func(i, j int) bool { return s.byLatest[i].LatestArrival() < s.byLatest[j].LatestArrival() })
	s.byEarliest = append([]model.Job[T]{}, s.jobs...)
	sort.Slice(s.byEarliest, func(i, j int) bool { return s.byEarliest[i].EarliestArrival() < s.byEarliest[j].EarliestArrival() })
	s.byWCET = append([]model.Job[T]{}, s.jobs...)
	sort.Slice(s.byWCET, func(i, j int) bool { return s.byWCET[i].MaximalCost() < s.byWCET[j].MaximalCost() })
}

// recompute derives LBT, LIT, per-job LST, max priority, and key from
// scratch. reduction_set.hpp performs an incremental sorted-insert on
// AddJob instead; spec.md §9 notes that an incremental update is
// "permissible but not required" as long as fixed-point equivalence
// holds, so this port recomputes on every growth step for simplicity
// and correctness.
func (s *Set[T]) recompute() {
	s.computeMaxPriority()
	s.computeLatestBusyTime()
	s.computeLatestIdleTime()
	s.computeLatestStartTimes()
	s.computeKey()
}

// AddJob grows the set with one more member, matching
// reduction_set.hpp's add_job.
func (s *Set[T]) AddJob(j model.Job[T]) {
	s.jobs = append(s.jobs, j)
	s.rebuildSortedViews()
	s.recompute()
}

// Members returns the current member jobs.
func (s *Set[T]) Members() []model.Job[T] { return s.jobs }

// Key returns the XOR-combined hash of every member's job key.
func (s *Set[T]) Key() uint64 { return s.key }

func (s *Set[T]) computeKey() {
	var k uint64
	for _, j := range s.jobs {
		k ^= j.Key()
	}
	s.key = k
}

// isMember reports whether j (by JobID) already belongs to the set.
func (s *Set[T]) isMember(j model.Job[T]) bool {
	for _, m := range s.jobs {
		if m.ID == j.ID {
			return true
		}
	}
	return false
}

// EarliestStartTime = max(cpu_availability.From(), min earliest_arrival
// across members).
func (s *Set[T]) EarliestStartTime() T {
	est := s.cpuAvailability.From()
	if len(s.byEarliest) > 0 && s.byEarliest[0].EarliestArrival() > est {
		return s.byEarliest[0].EarliestArrival()
	}
	return est
}

// EarliestFinishTime is the whole-set aggregate: the same
// accumulation algorithm as latest busy time, but using least_cost()
// (BCET) walked in earliest-arrival order, seeded at cpu_availability.From().
func (s *Set[T]) EarliestFinishTime() T {
	t := s.cpuAvailability.From()
	for _, j := range s.byEarliest {
		if j.EarliestArrival() > t {
			t = j.EarliestArrival()
		}
		t += j.LeastCost()
	}
	return t
}

// EarliestFinishTimeJob is the per-job overload.
func (s *Set[T]) EarliestFinishTimeJob(j model.Job[T]) T {
	est := s.cpuAvailability.From()
	if j.EarliestArrival() > est {
		est = j.EarliestArrival()
	}
	return est + j.LeastCost()
}

// LatestStartTime is the whole-set aggregate fallback bound:
// max(cpu_availability.Until(), smallest latest_arrival among members).
func (s *Set[T]) LatestStartTime() T {
	lst := s.cpuAvailability.Until()
	if len(s.byLatest) > 0 && s.byLatest[0].LatestArrival() > lst {
		return s.byLatest[0].LatestArrival()
	}
	return lst
}

// GetLatestStartTime is the per-job map lookup populated by
// computeLatestStartTimes.
func (s *Set[T]) GetLatestStartTime(j model.Job[T]) (T, bool) {
	v, ok := s.latestStartTimes[j.Index]
	return v, ok
}

// LatestFinishTime(job) = GetLatestStartTime(job) + job.MaximalCost().
func (s *Set[T]) LatestFinishTime(j model.Job[T]) T {
	lst, _ := s.GetLatestStartTime(j)
	return lst + j.MaximalCost()
}

// GetMinWCET returns the smallest WCET among members.
func (s *Set[T]) GetMinWCET() T {
	return s.byWCET[0].MaximalCost()
}

// LatestBusyTime returns the precomputed LBT.
func (s *Set[T]) LatestBusyTime() T { return s.latestBusyTime }

// LatestIdleTime returns the precomputed LIT and whether one exists
// (false means "no idle time", the original's -1 sentinel).
func (s *Set[T]) LatestIdleTime() (T, bool) { return s.latestIdleTime, s.latestIdleTimeValid }

// HasPotentialDeadlineMisses reports whether any member's latest
// finish time would exceed its deadline plus tolerance.
func (s *Set[T]) HasPotentialDeadlineMisses(tolerance T) bool {
	for _, j := range s.jobs {
		lst, ok := s.GetLatestStartTime(j)
		if !ok {
			continue
		}
		if j.ExceedsDeadline(lst+j.MaximalCost(), tolerance) {
			return true
		}
	}
	return false
}

// computeMaxPriority keeps the numerically largest (i.e. worst)
// priority value seen among members, matching
// reduction_set.hpp's compute_max_priority. This is a plain numeric
// max, not a priority_exceeds comparison: PriorityExceeds reports
// "higher actual priority" (numerically lower), the opposite sense.
func (s *Set[T]) computeMaxPriority() {
	var max T
	first := true
	for _, j := range s.jobs {
		if first || j.Priority > max {
			max = j.Priority
			first = false
		}
	}
	s.maxPriorityValue = max
}

// computeLatestBusyTime implements Algorithm 2: iterate members in
// ascending latest-arrival order, accumulating
// t := max(t, j.LatestArrival()) + j.MaximalCost(), seeded at
// cpu_availability.Until().
func (s *Set[T]) computeLatestBusyTime() {
	t := s.cpuAvailability.Until()
	for _, j := range s.byLatest {
		if j.LatestArrival() > t {
			t = j.LatestArrival()
		}
		t += j.MaximalCost()
	}
	s.latestBusyTime = t
}

// computeLatestIdleTime implements Algorithm 3. Edge case taken from
// the original source: a witness whose latest arrival equals the
// smallest latest arrival in the set is never reported as an idle
// candidate (see the check at the end of the function).
func (s *Set[T]) computeLatestIdleTime() {
	s.latestIdleTimeValid = false
	if len(s.byLatest) == 0 {
		return
	}
	// find the first job (ascending latest-arrival order) whose
	// latest arrival exceeds cpu_availability.From()
	foundFirst := false
	for _, j := range s.byLatest {
		if j.LatestArrival() > s.cpuAvailability.From() {
			foundFirst = true
			break
		}
	}
	if !foundFirst {
		return
	}

	var idleJob model.Job[T]
	haveIdleJob := false
	smallestLatestArrival := s.byLatest[0].LatestArrival()

	for _, i := range s.byLatest {
		t := s.cpuAvailability.From()
		for _, j := range s.byEarliest {
			if j.LatestArrival() >= i.LatestArrival() {
				continue
			}
			if j.EarliestArrival() > t {
				t = j.EarliestArrival()
			}
			t += j.LeastCost()
			if t >= i.LatestArrival() {
				break
			}
		}
		if t < i.LatestArrival() {
			if !haveIdleJob || i.LatestArrival() > idleJob.LatestArrival() {
				idleJob = i
				haveIdleJob = true
			}
		}
	}

	if !haveIdleJob {
		return
	}
	if idleJob.LatestArrival() == smallestLatestArrival {
		// the very first job in arrival order is never itself a
		// usable idle-time witness
		return
	}
	s.latestIdleTime = idleJob.LatestArrival() - s.epsilon
	s.latestIdleTimeValid = true
}

// preprocessPriorities propagates priorities along predecessors
// restricted to set membership: p*_i = max(p_i, max p*_pred) over
// predecessors that are also members, processed in ascending job-index
// order (which is already a valid topological order, since the job
// vector was topologically sorted by the precedence preprocessor
// before any exploration begins).
func (s *Set[T]) preprocessPriorities() map[int]T {
	members := make(map[int]model.Job[T], len(s.jobs))
	for _, j := range s.jobs {
		members[j.Index] = j
	}
	ordered := make([]model.Job[T], len(s.jobs))
	copy(ordered, s.jobs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	prio := make(map[int]T, len(ordered))
	for _, j := range ordered {
		best := j.Priority
		for _, p := range s.predecessors[j.Index] {
			if pm, ok := members[p]; ok {
				if pp, ok2 := prio[pm.Index]; ok2 && pp > best {
					best = pp
				}
			}
		}
		prio[j.Index] = best
	}
	return prio
}

// descendantsInSet returns the indices of j's transitive successors
// that are also members of this set, via a correct visited-set BFS.
// original_source/include/uni/reduction_set.hpp's get_descendants
// calls std::remove_if without the required .erase(...) afterwards,
// so its pruning never actually happens and the BFS can revisit
// already-found descendants; this implementation tracks a visited set
// instead, per spec.md §9's note to implement the intended semantics.
func (s *Set[T]) descendantsInSet(start model.Job[T]) []model.Job[T] {
	members := make(map[int]model.Job[T], len(s.jobs))
	for _, j := range s.jobs {
		members[j.Index] = j
	}
	visited := map[int]bool{start.Index: true}
	queue := []int{start.Index}
	var out []model.Job[T]
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, succ := range s.successors[cur] {
			if visited[succ] {
				continue
			}
			visited[succ] = true
			if m, ok := members[succ]; ok {
				out = append(out, m)
				queue = append(queue, succ)
			}
		}
	}
	return out
}

// computeLatestStartTimes implements Eqs. 12/13/16: preprocess
// priorities, then compute each member's LST.
func (s *Set[T]) computeLatestStartTimes() {
	prio := s.preprocessPriorities()
	s.latestStartTimes = make(map[int]T, len(s.jobs))
	for _, i := range s.jobs {
		s.latestStartTimes[i.Index] = s.computeSi(i, prio)
	}
}

// computeSi computes the latest start time of member i, following
// original_source/include/uni/reduction_set.hpp's compute_si literally:
// the blocking-job candidate filter is `i.PriorityExceeds(prio[j])`
// (i.e. i's own priority is numerically lower, hence a higher actual
// priority, than j's preprocessed priority). See DESIGN.md for the
// history of a sign inversion that once made this condition backwards.
func (s *Set[T]) computeSi(i model.Job[T], prio map[int]T) T {
	var blockingTime T
	haveBlocker := false
	var blockingCost T
	for _, j := range s.jobs {
		if j.Index == i.Index {
			continue
		}
		if i.PriorityExceeds(prio[j.Index]) {
			if !haveBlocker || j.MaximalCost() > blockingCost {
				blockingCost = j.MaximalCost()
				haveBlocker = true
			}
		}
	}
	if haveBlocker {
		blockingTime = blockingCost
	}

	s0 := s.cpuAvailability.Until()
	cand := i.LatestArrival()
	if cand > s0 {
		s0 = cand
	}
	cand = i.LatestArrival() - s.epsilon + blockingTime
	if cand > s0 {
		s0 = cand
	}

	curLST := s0
	for _, j := range s.byEarliest {
		if j.Index == i.Index {
			continue
		}
		if j.EarliestArrival() <= curLST && !i.PriorityExceeds(prio[j.Index]) {
			curLST += j.MaximalCost()
		} else if j.EarliestArrival() > curLST {
			break
		}
	}

	// Eq. 16: second bound via latest busy time minus i's own cost
	// and the cost of every descendant of i that is also in the set.
	secondBound := s.latestBusyTime - i.MaximalCost()
	for _, d := range s.descendantsInSet(i) {
		secondBound -= d.MaximalCost()
	}

	if secondBound < curLST {
		return secondBound
	}
	return curLST
}

// CanInterfere reports whether a pending job x may interfere with
// this (closed-candidate) reduction set, matching
// reduction_set.hpp's public can_interfere overload: precedence
// admissibility first (Eq. 17), then Corollary 1.
//
// ancestorsOfX is x's transitive precedence-ancestor index set;
// scheduledJobs is the state's already-dispatched job set; both are
// expressed over the same global job-index space as the set's own
// members.
func (s *Set[T]) CanInterfere(x model.Job[T], ancestorsOfX indexset.Set, scheduledJobs indexset.Set, tolerance T) bool {
	rSet := s.memberIndexSet(scheduledJobs)
	schedOrR := scheduledJobs.Union(rSet)
	if !schedOrR.Includes(ancestorsOfX) {
		return false
	}
	if ancestorsOfX.Includes(scheduledJobs) {
		return false
	}
	return s.canInterfere(x)
}

func (s *Set[T]) memberIndexSet(scheduledJobs indexset.Set) indexset.Set {
	r := indexset.New(s.capacity)
	for _, j := range s.jobs {
		r.Add(j.Index)
	}
	return r
}

// canInterfere implements Corollary 1's three-way disjunction as the
// sequential early-return chain reduction_set.hpp literally uses.
func (s *Set[T]) canInterfere(x model.Job[T]) bool {
	if s.isMember(x) {
		return false
	}
	if lit, ok := s.LatestIdleTime(); ok && x.EarliestArrival() <= lit {
		return true
	}
	maxArrival := s.byLatest[len(s.byLatest)-1].LatestArrival()
	if !x.PriorityExceeds(s.maxPriorityValue) && x.EarliestArrival() > maxArrival {
		return false
	}
	for _, j := range s.jobs {
		lst, ok := s.GetLatestStartTime(j)
		if ok && x.EarliestArrival() <= lst && x.HigherPriorityThan(j) {
			return true
		}
	}
	return false
}

// Statistics summarizes one create_reduction_set growth outcome,
// matching reduction_set.hpp's Reduction_set_statistics.
type Statistics struct {
	ReductionSuccess        bool
	NumJobs                 int
	NumInterferingJobsAdded int
}
