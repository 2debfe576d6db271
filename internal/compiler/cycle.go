package compiler

import (
	"fmt"
	"strings"
)

// Cycle describes a dependency loop among named nodes of a function spec.
type Cycle struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// dependencyGraph maps node name → names of the nodes it reads.
type dependencyGraph map[string][]string

// AnalyzeCycles finds every dependency cycle among the named nodes.
//
// The algorithm:
//  1. Use Tarjan's algorithm to find strongly connected components
//  2. Report each SCC with size > 1 or a self-loop as a cycle
//
// order fixes the visiting order so that the report is deterministic.
// Names that appear only as dependencies (variables, parameters) are
// leaves and can never be part of a cycle.
//
// A DAG returns an empty list.
func AnalyzeCycles(deps dependencyGraph, order []string) []Cycle {
	cycles := []Cycle{}
	for _, scc := range tarjanSCC(deps, order) {
		if len(scc) > 1 || hasSelfLoop(scc[0], deps) {
			cycles = append(cycles, sccToCycle(scc, deps))
		}
	}
	return cycles
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, deps dependencyGraph) bool {
	for _, neighbor := range deps[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Components are emitted in reverse topological order of the condensation.
func tarjanSCC(deps dependencyGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range deps[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of an SCC: pop it
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// sccToCycle converts an SCC to a Cycle.
func sccToCycle(scc []string, deps dependencyGraph) Cycle {
	path := []string{scc[0], scc[0]}
	if len(scc) > 1 {
		path = reconstructCyclePath(scc, deps)
	}
	return Cycle{
		Path:    path,
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until the walk returns to it.
func reconstructCyclePath(scc []string, deps dependencyGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range deps[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}

// topoOrder returns the nodes of an acyclic dependency graph with every
// node after its dependencies. Ties follow order.
func topoOrder(deps dependencyGraph, order []string) []string {
	var (
		out  []string
		done = make(map[string]bool)
	)
	var visit func(string)
	visit = func(v string) {
		if done[v] {
			return
		}
		done[v] = true
		for _, w := range deps[v] {
			if _, isNode := deps[w]; isNode {
				visit(w)
			}
		}
		out = append(out, v)
	}
	for _, v := range order {
		visit(v)
	}
	return out
}
