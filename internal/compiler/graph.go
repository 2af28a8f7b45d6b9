package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/classier/internal/engine"
)

// dependencyGraph maps a class name to the manifest classes it needs
// defined first (its _extends parent and included classes).
type dependencyGraph map[string][]string

// buildDependencyGraph records, for each class, the class names its
// declaration references. Unknown references are errors; mixin names are
// not graph nodes.
func buildDependencyGraph(m *Manifest) (dependencyGraph, error) {
	graph := make(dependencyGraph, len(m.Classes))
	for _, e := range m.Classes {
		graph[e.Name] = []string{}
	}

	for _, e := range m.Classes {
		if parent, ok := e.Decl.Get(keyExtends); ok {
			if name, isName := parent.(engine.String); isName {
				if _, known := graph[string(name)]; !known {
					return nil, &CompileError{
						File:    m.Source,
						Field:   "classes." + e.Name + "." + keyExtends,
						Message: fmt.Sprintf("unknown class %q", string(name)),
					}
				}
				graph[e.Name] = append(graph[e.Name], string(name))
			}
		}

		for _, ref := range includeNames(e.Decl) {
			if _, isMixin := m.Mixin(ref); isMixin {
				continue
			}
			if _, known := graph[ref]; !known {
				return nil, &CompileError{
					File:    m.Source,
					Field:   "classes." + e.Name + "." + keyInclude,
					Message: fmt.Sprintf("unknown mixin or class %q", ref),
				}
			}
			graph[e.Name] = append(graph[e.Name], ref)
		}
	}
	return graph, nil
}

// includeNames returns the names listed in __include__, which may be a
// single name or a list of names.
func includeNames(decl *engine.Record) []string {
	v, ok := decl.Get(keyInclude)
	if !ok {
		return nil
	}
	var names []string
	switch x := v.(type) {
	case engine.String:
		names = append(names, string(x))
	case *engine.List:
		for _, item := range x.Items() {
			if s, isName := item.(engine.String); isName {
				names = append(names, string(s))
			}
		}
	}
	return names
}

// definitionOrder returns the class names in an order where every class
// follows its dependencies, keeping manifest order otherwise. A cycle is a
// CompileError naming its path.
func definitionOrder(m *Manifest, graph dependencyGraph) ([]string, error) {
	for _, scc := range tarjanSCC(graph, m.Classes) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(scc, graph)
			return nil, &CompileError{
				File:    m.Source,
				Field:   "classes",
				Message: "inheritance cycle: " + strings.Join(path, " -> "),
			}
		}
	}

	var (
		order []string
		done  = make(map[string]bool, len(graph))
	)
	var visit func(string)
	visit = func(name string) {
		if done[name] {
			return
		}
		done[name] = true
		for _, dep := range graph[name] {
			visit(dep)
		}
		order = append(order, name)
	}
	for _, e := range m.Classes {
		visit(e.Name)
	}
	return order, nil
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in manifest order so results are deterministic.
func tarjanSCC(graph dependencyGraph, nodes []Entry) [][]string {
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

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC.
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

	for _, e := range nodes {
		if _, visited := indices[e.Name]; !visited {
			strongConnect(e.Name)
		}
	}
	return sccs
}

// reconstructCyclePath builds a cycle path from an SCC by following edges
// inside it until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
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
