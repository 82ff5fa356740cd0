// Package partition builds one self-contained explorer problem per
// processing element (PE) from a globally preprocessed job set, and
// drives their exploration concurrently. Grounded on run_analysis.cpp's
// per-PE partitioning loop (original_source/src/run_analysis.cpp) for
// the split, and on the teacher's dag_engine.go worker/coordinator
// pattern (services/orchestrator/dag_engine.go) for the driver, since
// spec.md §5 explicitly allows per-PE analyses to be parallelized
// ("no shared mutable state between them").
package partition

import (
	"sort"

	"github.com/swarmguard/npdaa/internal/explore"
	"github.com/swarmguard/npdaa/internal/indexset"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/precedence"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// BuildPartitions groups a globally preprocessed job set (arrivals
// already tightened across ALL precedence ancestors, including those
// on other PEs, by precedence.Preprocess) by PE, and returns one
// explore.Problem per PE with jobs reindexed to local positions.
// Precedence constraints that cross PEs are intentionally dropped from
// the per-PE Predecessors/Successors/Ancestors: their effect on timing
// is already baked into the globally tightened arrival window, and
// spec.md's Non-goals exclude modeling global multiprocessor
// schedulability, so a per-PE explorer only needs same-PE precedence
// to decide eligibility.
func BuildPartitions[T timeval.Numeric](jobs []model.Job[T], constraints []precedence.Constraint) map[uint64]explore.Problem[T] {
	globalByID := make(map[model.JobID]int, len(jobs))
	for _, j := range jobs {
		globalByID[j.ID] = j.Index
	}

	byPE := make(map[uint64][]model.Job[T])
	for _, j := range jobs {
		byPE[j.PE] = append(byPE[j.PE], j)
	}

	problems := make(map[uint64]explore.Problem[T], len(byPE))
	for pe, peJobs := range byPE {
		sort.Slice(peJobs, func(i, j int) bool { return peJobs[i].Index < peJobs[j].Index })

		localIndex := make(map[int]int, len(peJobs))
		local := make([]model.Job[T], len(peJobs))
		for i, j := range peJobs {
			localIndex[j.Index] = i
			lj := j
			lj.Index = i
			local[i] = lj
		}

		preds := make([][]int, len(local))
		succs := make([][]int, len(local))
		for _, c := range constraints {
			predGlobal, ok1 := globalByID[c.Pred]
			succGlobal, ok2 := globalByID[c.Succ]
			if !ok1 || !ok2 {
				continue
			}
			predLocal, pok := localIndex[predGlobal]
			succLocal, sok := localIndex[succGlobal]
			if !pok || !sok {
				continue
			}
			preds[succLocal] = append(preds[succLocal], predLocal)
			succs[predLocal] = append(succs[predLocal], succLocal)
		}

		ancestors := make([]indexset.Set, len(local))
		for i := range local {
			set := indexset.New(len(local))
			for _, a := range transitiveAncestors(i, preds) {
				set.Add(a)
			}
			ancestors[i] = set
		}

		problems[pe] = explore.Problem[T]{
			Jobs:         local,
			Predecessors: preds,
			Successors:   succs,
			Ancestors:    ancestors,
		}
	}
	return problems
}

// transitiveAncestors is a plain BFS up the local predecessor graph,
// mirroring internal/precedence's unexported ancestors() since that
// helper operates on a different index space here (local to one PE).
func transitiveAncestors(idx int, preds [][]int) []int {
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
