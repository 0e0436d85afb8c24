package project

import (
	"sort"

	"github.com/google/uuid"
)

// BoQTree indexes a flat slice of BoQ lines by parent.
// Lines are addressed by their position in the sorted slice.
type BoQTree struct {
	lines    []BoQLine
	roots    []int
	children [][]int
}

// BuildBoQTree orders lines by insertion and links each to its parent.
// A line whose parent is not in the slice is treated as a root.
func BuildBoQTree(lines []BoQLine) *BoQTree {
	sorted := make([]BoQLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	index := make(map[uuid.UUID]int, len(sorted))
	for i := range sorted {
		index[sorted[i].ID] = i
	}

	t := &BoQTree{
		lines:    sorted,
		children: make([][]int, len(sorted)),
	}
	for i := range sorted {
		parent, ok := -1, false
		if sorted[i].ParentID != nil {
			parent, ok = index[*sorted[i].ParentID]
		}
		if !ok || parent == i {
			t.roots = append(t.roots, i)
			continue
		}
		t.children[parent] = append(t.children[parent], i)
	}
	return t
}

// Len returns the number of lines
func (t *BoQTree) Len() int { return len(t.lines) }

// Line returns the line at idx
func (t *BoQTree) Line(idx int) BoQLine { return t.lines[idx] }

// Roots returns the indices of top-level lines
func (t *BoQTree) Roots() []int { return t.roots }

// Children returns the indices of the direct children of idx
func (t *BoQTree) Children(idx int) []int { return t.children[idx] }

// Walk visits every reachable line depth-first in insertion order
func (t *BoQTree) Walk(fn func(idx, depth int)) {
	visited := make([]bool, len(t.lines))
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		fn(idx, depth)
		for _, c := range t.children[idx] {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}
