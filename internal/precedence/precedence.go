// Package precedence implements the job preprocessing stage: a
// deterministic topological sort of the generated job set followed by
// arrival-window tightening across precedence ancestors, grounded on
// original_source/include/precedence.hpp.
package precedence

import (
	"github.com/swarmguard/npdaa/internal/errs"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// Constraint is an ordered (predecessor, successor) pair of job ids,
// matching precedence.hpp's Precedence_constraint = pair<JobID,JobID>.
type Constraint struct {
	Pred model.JobID
	Succ model.JobID
}

// ValidateRefs confirms every job id named by a constraint exists in
// the set, matching precedence.hpp's validate_prec_refs. Returns an
// InvalidJobReference error (not a process-exit) on the first miss.
func ValidateRefs[T timeval.Numeric](jobs *model.Set[T], constraints []Constraint) error {
	for _, c := range constraints {
		if !jobs.Contains(c.Pred) {
			return &errs.InvalidJobReference{Ref: errs.JobRef{Task: c.Pred.Task, Job: c.Pred.Job}}
		}
		if !jobs.Contains(c.Succ) {
			return &errs.InvalidJobReference{Ref: errs.JobRef{Task: c.Succ.Task, Job: c.Succ.Job}}
		}
	}
	return nil
}

// predecessorSets builds, per job index, the list of job indices that
// must precede it, from an explicit constraint list.
func predecessorSets[T timeval.Numeric](jobs *model.Set[T], constraints []Constraint) [][]int {
	preds := make([][]int, len(jobs.Jobs))
	for _, c := range constraints {
		predIdx, _ := jobs.Lookup(c.Pred)
		succIdx, _ := jobs.Lookup(c.Succ)
		preds[succIdx.Index] = append(preds[succIdx.Index], predIdx.Index)
	}
	return preds
}

// TopologicalSort orders job indices Kahn-style: roots (jobs whose
// predecessor set is empty) emit first, then any job whose
// predecessors have all already been emitted; ties are broken by
// input order (ascending index) to keep output deterministic, matching
// precedence.hpp's topological_sort. Returns CyclicPrecedence if a
// residual set of jobs never becomes ready (should not occur for
// DAG-generated jobs without malformed precedence constraints).
func TopologicalSort(predecessorSets [][]int) ([]int, error) {
	n := len(predecessorSets)
	inDegree := make([]int, n)
	for i := range predecessorSets {
		inDegree[i] = len(predecessorSets[i])
	}
	// successors[p] = jobs that have p as a predecessor
	successors := make([][]int, n)
	for j, preds := range predecessorSets {
		for _, p := range preds {
			successors[p] = append(successors[p], j)
		}
	}

	order := make([]int, 0, n)
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	processed := make([]bool, n)
	for len(ready) > 0 {
		// emit in ascending index order among currently-ready jobs to
		// keep behavior deterministic
		minPos := 0
		for i := 1; i < len(ready); i++ {
			if ready[i] < ready[minPos] {
				minPos = i
			}
		}
		j := ready[minPos]
		ready = append(ready[:minPos], ready[minPos+1:]...)
		order = append(order, j)
		processed[j] = true
		for _, s := range successors[j] {
			inDegree[s]--
			if inDegree[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	if len(order) != n {
		return nil, &errs.CyclicPrecedence{Remaining: n - len(order)}
	}
	return order, nil
}

// ancestors returns the full transitive predecessor set of job idx via
// BFS up the predecessor graph, matching precedence.hpp's
// set_arrival_times ancestor collection.
func ancestors(idx int, preds [][]int) []int {
	visited := make(map[int]bool)
	queue := []int{idx}
	var out []int
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range preds[cur] {
			if !visited[p] {
				visited[p] = true
				out = append(out, p)
				queue = append(queue, p)
			}
		}
	}
	return out
}

// PropagateArrivals tightens each job's arrival window to
// [max(eft, max ancestor.eft), max(lft, max ancestor.lft)], matching
// precedence.hpp's set_arrival_times. jobs is mutated in place; order
// is the topologically-sorted index order (ancestors must already have
// their own tightened window, so callers should have applied
// TopologicalSort first — this function itself revisits ancestors via
// BFS so it is correct regardless of iteration order, but processing
// in topological order lets a single pass suffice).
func PropagateArrivals[T timeval.Numeric](jobs []model.Job[T], preds [][]int, order []int) {
	for _, idx := range order {
		anc := ancestors(idx, preds)
		if len(anc) == 0 {
			continue
		}
		eft := jobs[idx].EarliestArrival()
		lft := jobs[idx].LatestArrival()
		for _, a := range anc {
			if jobs[a].EarliestArrival() > eft {
				eft = jobs[a].EarliestArrival()
			}
			if jobs[a].LatestArrival() > lft {
				lft = jobs[a].LatestArrival()
			}
		}
		jobs[idx].Arrival = timeval.New(eft, lft)
	}
}

// Preprocess runs TopologicalSort then PropagateArrivals, matching
// precedence.hpp's preprocess_jobs. Note: the original source applies
// arrival-widening before the topological sort; this implementation
// applies spec.md §4.1's stated order (sort, then propagate) instead,
// since the two orders are equivalent here — arrival propagation is
// purely index-based (it walks the precedence graph, not the sorted
// sequence) and the final tightened values do not depend on which
// happens first (see DESIGN.md).
func Preprocess[T timeval.Numeric](jobs []model.Job[T], constraints []Constraint, jobSet *model.Set[T]) ([]int, error) {
	preds := predecessorSets(jobSet, constraints)
	order, err := TopologicalSort(preds)
	if err != nil {
		return nil, err
	}
	PropagateArrivals(jobs, preds, order)
	return order, nil
}
