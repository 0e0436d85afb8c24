package project

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildBoQTree(t *testing.T) {
	a := BoQLine{ID: uuid.New(), ItemCode: "A", SortOrder: 1}
	a1 := BoQLine{ID: uuid.New(), ItemCode: "A.1", ParentID: &a.ID, SortOrder: 2}
	b := BoQLine{ID: uuid.New(), ItemCode: "B", SortOrder: 3}
	a2 := BoQLine{ID: uuid.New(), ItemCode: "A.2", ParentID: &a.ID, SortOrder: 4}
	a11 := BoQLine{ID: uuid.New(), ItemCode: "A.1.1", ParentID: &a1.ID, SortOrder: 5}
	missing := uuid.New()
	orphan := BoQLine{ID: uuid.New(), ItemCode: "O", ParentID: &missing, SortOrder: 6}

	// shuffled input
	tree := BuildBoQTree([]BoQLine{a11, b, a2, orphan, a, a1})

	assert.Equal(t, 6, tree.Len())

	var visited []string
	var depths []int
	tree.Walk(func(idx, depth int) {
		visited = append(visited, tree.Line(idx).ItemCode)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"A", "A.1", "A.1.1", "A.2", "B", "O"}, visited)
	assert.Equal(t, []int{0, 1, 2, 1, 0, 0}, depths)

	roots := tree.Roots()
	assert.Len(t, roots, 3)
	assert.Len(t, tree.Children(roots[0]), 2)
}

func TestBuildBoQTree_Empty(t *testing.T) {
	tree := BuildBoQTree(nil)
	assert.Equal(t, 0, tree.Len())
	called := false
	tree.Walk(func(int, int) { called = true })
	assert.False(t, called)
}
