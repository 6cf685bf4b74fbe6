// Package corpus builds the corpus index described in spec.md §3 and
// §4.2's prerequisites: the disjoint union of program roots, their
// bottom-up topological order, and the per-node multiplicity and
// task-set analyses the utility model depends on.
package corpus

import (
	"sort"

	"absearch/internal/term"
)

// Corpus is the indexed view of a set of parsed programs sharing one
// term.Store. It is built once per compression step and never mutated.
type Corpus struct {
	Store *term.Store

	// Roots[i] is program i's root node; Tasks[i] is its task label.
	// len(Roots) == len(Tasks).
	Roots []term.Id
	Tasks []string

	// TreeNodes is every node reachable from some root, in child-first
	// (ascending Id) topological order — spec.md §3's "Nodes are
	// numbered in child-first topological order" falls directly out of
	// the store's hash-consing, since a child is always added before
	// its parent.
	TreeNodes []term.Id

	// NumPathsToNode is the multiplicity of each node in the corpus:
	// the number of distinct paths from any root down to it, summed
	// over all roots. A node reachable two different ways from the
	// same root (or shared by two roots) counts twice.
	NumPathsToNode map[term.Id]int

	// TasksOfNode is the union of the task labels of every root that
	// can reach the node.
	TasksOfNode map[term.Id]map[string]struct{}
}

// Build indexes a parsed set of (root, task) pairs over store.
func Build(store *term.Store, roots []term.Id, tasks []string) *Corpus {
	c := &Corpus{
		Store:          store,
		Roots:          roots,
		Tasks:          tasks,
		NumPathsToNode: make(map[term.Id]int),
		TasksOfNode:    make(map[term.Id]map[string]struct{}),
	}

	for i, r := range roots {
		c.NumPathsToNode[r]++
		taskSet(c, r)[tasks[i]] = struct{}{}
	}

	// Propagate multiplicity and task sets downward in decreasing Id
	// order: every node's children have strictly smaller Ids (child-first
	// hash-consing), so by the time we process node n every contribution
	// to n from above has already landed.
	n := term.Id(store.Len())
	for i := n - 1; i >= 0; i-- {
		paths, ok := c.NumPathsToNode[i]
		if !ok || paths == 0 {
			continue
		}
		tasks := c.TasksOfNode[i]
		node := store.Node(i)
		for _, child := range children(node) {
			c.NumPathsToNode[child] += paths
			childTasks := taskSet(c, child)
			for t := range tasks {
				childTasks[t] = struct{}{}
			}
		}
	}

	c.TreeNodes = make([]term.Id, 0, len(c.NumPathsToNode))
	for id, paths := range c.NumPathsToNode {
		if paths > 0 {
			c.TreeNodes = append(c.TreeNodes, id)
		}
	}
	sort.Slice(c.TreeNodes, func(i, j int) bool { return c.TreeNodes[i] < c.TreeNodes[j] })

	return c
}

func taskSet(c *Corpus, id term.Id) map[string]struct{} {
	s, ok := c.TasksOfNode[id]
	if !ok {
		s = make(map[string]struct{})
		c.TasksOfNode[id] = s
	}
	return s
}

func children(n term.Node) []term.Id {
	switch n.Kind {
	case term.KindApp:
		return []term.Id{n.Func, n.Arg}
	case term.KindLam:
		return []term.Id{n.Body}
	default:
		return nil
	}
}

// InitCost is the total syntactic cost of the corpus before any
// abstraction is applied: the sum of each root's cost.
func (c *Corpus) InitCost() int {
	total := 0
	for _, r := range c.Roots {
		total += c.Store.Cost(r)
	}
	return total
}

// IsRoot reports whether id is a program root.
func (c *Corpus) IsRoot(id term.Id) bool {
	for _, r := range c.Roots {
		if r == id {
			return true
		}
	}
	return false
}

// TaskCount returns the number of distinct tasks labelling id's ancestry.
func (c *Corpus) TaskCount(id term.Id) int {
	return len(c.TasksOfNode[id])
}
