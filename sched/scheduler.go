// Package sched turns a compile.Result into the three assigner lists
// spec §4.4's Scheduler describes — orphans, input-sensitive, and
// per-clock triggered buckets — each in a deterministic topological
// order, and exposes the lean/traced split set_lean_mode toggles.
//
// Grounded on zeonica/cgra/cgra.go's own two-phase tick (the CGRA
// core evaluates every tile's combinational network, then commits
// registers), generalized here into data-driven buckets instead of a
// hardcoded phase list.
package sched

import (
	"fmt"
	"sort"

	"github.com/sarchlab/lirsim/compile"
	"github.com/sarchlab/lirsim/symtab"
)

// assignerVerbosity is satisfied by both compile.Assigner and
// compile.MemWriteAssigner; Scheduler uses it for the lean/traced
// split without importing anything compile doesn't already export.
type assignerVerbosity interface {
	SetVerbose(bool)
}

// Scheduler owns the ordered assigner lists a cycle drives: the
// one-shot orphan list, the input-sensitive list run whenever any
// input port changes, and one triggered bucket per clock.
type Scheduler struct {
	table *symtab.SymbolTable

	Orphans        []symtab.AssignerRef
	InputSensitive []symtab.AssignerRef
	Triggered      map[string][]symtab.AssignerRef // clock name -> bucket
	ClockOrder     []string                        // deterministic iteration order

	lean bool
}

// New partitions and orders result's assigners, and records the
// topologically sorted combinational list on table so GetAssigners
// serves it in that order. The returned error is always nil: a
// combinational cycle that compile.Options.AllowCycles let through is
// broken at a deterministic point by sortTopological.
func New(result *compile.Result, table *symtab.SymbolTable) (*Scheduler, error) {
	s := &Scheduler{table: table, Triggered: make(map[string][]symtab.AssignerRef)}

	table.SetAssignerOrder(sortTopological(table, result.Assigners))

	orphanIDs := table.Orphans()
	orphanSet := make(map[symtab.ID]bool, len(orphanIDs))
	for _, id := range orphanIDs {
		orphanSet[id] = true
	}
	s.Orphans = sortTopological(table, table.GetAssigners(orphanSet))
	s.InputSensitive = sortTopological(table, table.InputChildrenAssigners())

	for clock, bucket := range result.TriggeredByClock {
		s.ClockOrder = append(s.ClockOrder, clock)
		s.Triggered[clock] = sortTriggered(bucket)
	}
	sort.Strings(s.ClockOrder)

	return s, nil
}

// sortTopological orders assigners so every operand is computed before
// the assigner that reads it, breaking ties by the output symbol's
// name — spec §4.4's "deterministic, name-ordered tie-break" for
// Kahn's algorithm. When assigners remain but none is ready (a
// combinational cycle), the unplaced assigner whose output name sorts
// first is placed next, which breaks the cycle there.
func sortTopological(table *symtab.SymbolTable, assigners []symtab.AssignerRef) []symtab.AssignerRef {
	if len(assigners) == 0 {
		return nil
	}

	byOutput := make(map[symtab.ID]symtab.AssignerRef, len(assigners))
	inDegree := make(map[symtab.ID]int, len(assigners))
	for _, a := range assigners {
		byOutput[a.OutputSymbolID()] = a
		inDegree[a.OutputSymbolID()] = 0
	}
	for _, a := range assigners {
		out := a.OutputSymbolID()
		for _, parent := range table.ParentsOf(out) {
			if _, tracked := byOutput[parent]; tracked {
				inDegree[out]++
			}
		}
	}

	var ready []symtab.ID
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	byName := func(ids []symtab.ID) {
		sort.Slice(ids, func(i, j int) bool {
			return table.Symbol(ids[i]).Name < table.Symbol(ids[j]).Name
		})
	}
	byName(ready)

	var ordered []symtab.AssignerRef
	placed := make(map[symtab.ID]bool, len(assigners))
	for len(ordered) < len(assigners) {
		if len(ready) == 0 {
			var stuck []symtab.ID
			for id := range inDegree {
				if !placed[id] {
					stuck = append(stuck, id)
				}
			}
			if len(stuck) == 0 {
				break
			}
			byName(stuck)
			ready = append(ready, stuck[0])
		}
		id := ready[0]
		ready = ready[1:]
		placed[id] = true
		ordered = append(ordered, byOutput[id])

		var unlocked []symtab.ID
		for _, child := range table.ChildrenOf(id) {
			if _, tracked := inDegree[child]; !tracked || placed[child] {
				continue
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				unlocked = append(unlocked, child)
			}
		}
		byName(unlocked)
		ready = append(ready, unlocked...)
		byName(ready)
	}

	if len(ordered) != len(assigners) {
		panic(fmt.Sprintf("sched: combinational ordering stalled (%d of %d assigners placed): more than one assigner writes the same symbol", len(ordered), len(assigners)))
	}
	return ordered
}

// sortTriggered orders a clock's triggered bucket by the output
// symbol's ID (declaration order); register commits and memory writes
// in one bucket are independent of each other by construction (each
// targets a distinct register or a fan-out over one memory's own write
// ports), so the order only needs to be deterministic, not
// dependency-aware.
func sortTriggered(bucket []symtab.AssignerRef) []symtab.AssignerRef {
	out := append([]symtab.AssignerRef(nil), bucket...)
	sort.Slice(out, func(i, j int) bool { return out[i].OutputSymbolID() < out[j].OutputSymbolID() })
	return out
}

// SetLeanMode toggles tracing on every assigner this Scheduler owns.
// Lean mode (v==false passed to SetVerbose) skips the slog.Log call
// Assigner.Execute otherwise makes on every write, per spec §4.4's
// set_lean_mode / "a cycle with tracing off should cost nothing beyond
// plain evaluation."
func (s *Scheduler) SetLeanMode(lean bool) {
	s.lean = lean
	verbose := !lean
	for _, a := range s.Orphans {
		setVerbose(a, verbose)
	}
	for _, a := range s.InputSensitive {
		setVerbose(a, verbose)
	}
	for _, bucket := range s.Triggered {
		for _, a := range bucket {
			setVerbose(a, verbose)
		}
	}
}

func setVerbose(a symtab.AssignerRef, v bool) {
	if av, ok := a.(assignerVerbosity); ok {
		av.SetVerbose(v)
	}
}

// IsLean reports the current lean/traced mode.
func (s *Scheduler) IsLean() bool { return s.lean }

// ExecuteAssigners runs a plain list in order.
func ExecuteAssigners(env *compile.EvalEnv, assigners []symtab.AssignerRef) {
	for _, a := range assigners {
		execute(a, env)
	}
}

// ExecuteOrphans runs the one-shot orphan list; callers run this once,
// right after compilation, before the first cycle.
func (s *Scheduler) ExecuteOrphans(env *compile.EvalEnv) {
	ExecuteAssigners(env, s.Orphans)
}

// ExecuteInputSensitive runs the input-sensitive list; callers run
// this whenever a poke marked any input dirty.
func (s *Scheduler) ExecuteInputSensitive(env *compile.EvalEnv) {
	ExecuteAssigners(env, s.InputSensitive)
}

// ExecuteTriggered runs clock's bucket, if it has one.
func (s *Scheduler) ExecuteTriggered(env *compile.EvalEnv, clock string) {
	ExecuteAssigners(env, s.Triggered[clock])
}

type executor interface {
	Execute(*compile.EvalEnv)
}

func execute(a symtab.AssignerRef, env *compile.EvalEnv) {
	if e, ok := a.(executor); ok {
		e.Execute(env)
		return
	}
	panic(fmt.Sprintf("sched: assigner for symbol %d has no Execute method", a.OutputSymbolID()))
}
