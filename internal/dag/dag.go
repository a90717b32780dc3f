// Package dag implements Fletcher's DAG Engine: pure, in-memory graph
// algorithms over a dataset's data products and dependencies. Nothing
// here touches the database or takes a lock; every function takes a
// node/edge snapshot and returns a result.
package dag

import (
	"sort"

	"github.com/google/uuid"
)

// Edge is a directed parent→child dependency.
type Edge struct {
	ParentID uuid.UUID
	ChildID  uuid.UUID
}

// CycleReport is the result of HasCycle.
type CycleReport struct {
	Acyclic bool
	// Path is the witnessing cycle, e.g. [A, B, A] for A->B->A. Empty when Acyclic.
	Path []uuid.UUID
}

type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully explored
)

// sortedIDs returns ids sorted lexicographically by string form, for
// deterministic DFS tie-break ordering.
func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func childrenOf(edges []Edge) map[uuid.UUID][]uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range edges {
		children[e.ParentID] = append(children[e.ParentID], e.ChildID)
	}
	for k := range children {
		children[k] = sortedIDs(children[k])
	}
	return children
}

// HasCycle runs a three-color DFS over nodes/edges and reports either
// "acyclic" or a witnessing cycle path. A self-loop (parent == child)
// is reported as a length-1 cycle: [n, n].
func HasCycle(nodes []uuid.UUID, edges []Edge) CycleReport {
	children := childrenOf(edges)
	colors := make(map[uuid.UUID]color, len(nodes))
	for _, n := range nodes {
		colors[n] = white
	}

	var stack []uuid.UUID
	var cycle []uuid.UUID

	var visit func(n uuid.UUID) bool
	visit = func(n uuid.UUID) bool {
		colors[n] = gray
		stack = append(stack, n)

		for _, child := range children[n] {
			switch colors[child] {
			case gray:
				// Found a back-edge: child is on the current stack.
				idx := indexOf(stack, child)
				cycle = append([]uuid.UUID{}, stack[idx:]...)
				cycle = append(cycle, child)
				return true
			case white:
				if visit(child) {
					return true
				}
			case black:
				// already fully explored, no cycle through here
			}
		}

		colors[n] = black
		stack = stack[:len(stack)-1]
		return false
	}

	for _, n := range sortedIDs(nodes) {
		if colors[n] == white {
			if visit(n) {
				return CycleReport{Acyclic: false, Path: cycle}
			}
		}
	}

	return CycleReport{Acyclic: true}
}

func indexOf(stack []uuid.UUID, target uuid.UUID) int {
	for i, v := range stack {
		if v == target {
			return i
		}
	}
	return -1
}

// Descendants returns the transitive closure of children reachable from
// roots, not including the roots themselves.
func Descendants(edges []Edge, roots []uuid.UUID) map[uuid.UUID]struct{} {
	children := childrenOf(edges)
	visited := make(map[uuid.UUID]struct{})
	queue := append([]uuid.UUID{}, roots...)
	rootSet := make(map[uuid.UUID]struct{}, len(roots))
	for _, r := range roots {
		rootSet[r] = struct{}{}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, child := range children[n] {
			if _, seen := visited[child]; seen {
				continue
			}
			if _, isRoot := rootSet[child]; isRoot {
				continue
			}
			visited[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return visited
}

// StateLookup resolves the current state of a node. EagerLookup resolves
// whether a node is eager. Both are supplied by the caller (Plan/State
// Engine) from a Store snapshot — the DAG Engine never queries storage.
type StateLookup func(uuid.UUID) (state string, ok bool)
type EagerLookup func(uuid.UUID) bool

// Parents returns the direct parents of target.
func Parents(edges []Edge, target uuid.UUID) []uuid.UUID {
	var parents []uuid.UUID
	for _, e := range edges {
		if e.ChildID == target {
			parents = append(parents, e.ParentID)
		}
	}
	return sortedIDs(parents)
}

// Children returns the direct children of node.
func Children(edges []Edge, node uuid.UUID) []uuid.UUID {
	return childrenOf(edges)[node]
}

// ReadyChildren returns the direct children of node that are newly
// eligible to queue: every parent is success, the child is currently
// waiting, and the child is eager. Non-eager children are never
// returned — callers that need to queue a non-eager product must do so
// via an explicit state update, not recompute.
func ReadyChildren(node uuid.UUID, edges []Edge, stateOf StateLookup, eagerOf EagerLookup) []uuid.UUID {
	var ready []uuid.UUID
	for _, child := range Children(edges, node) {
		state, ok := stateOf(child)
		if !ok || state != "waiting" {
			continue
		}
		if !eagerOf(child) {
			continue
		}
		if allParentsSuccess(child, edges, stateOf) {
			ready = append(ready, child)
		}
	}
	return ready
}

func allParentsSuccess(child uuid.UUID, edges []Edge, stateOf StateLookup) bool {
	for _, parent := range Parents(edges, child) {
		state, ok := stateOf(parent)
		if !ok || state != "success" {
			return false
		}
	}
	return true
}

// TopoOrder returns nodes in a topological order consistent with edges,
// breaking ties deterministically by lexicographic ID order (Kahn's
// algorithm). Callers must ensure the graph is acyclic; a graph with a
// cycle yields a partial order covering only the acyclic prefix.
func TopoOrder(nodes []uuid.UUID, edges []Edge) []uuid.UUID {
	indegree := make(map[uuid.UUID]int, len(nodes))
	for _, n := range nodes {
		indegree[n] = 0
	}
	for _, e := range edges {
		indegree[e.ChildID]++
	}

	children := childrenOf(edges)

	var ready []uuid.UUID
	for _, n := range sortedIDs(nodes) {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	var order []uuid.UUID
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].String() < ready[j].String() })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, child := range children[n] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	return order
}
