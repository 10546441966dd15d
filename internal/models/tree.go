package models

import "sort"

// Tree indexes items by id. Parent and child links are kept as ids, and the
// Children slices of the indexed items are filled in for serialization.
type Tree struct {
	nodes    map[int64]*TodoItem
	children map[int64][]int64
	roots    []int64
}

// NewTree builds a tree from a flat set of items. Items whose parent is not
// part of the set are treated as roots. Siblings are ordered by id.
func NewTree(items []*TodoItem) *Tree {
	sorted := make([]*TodoItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].ID < sorted[b].ID })

	t := &Tree{
		nodes:    make(map[int64]*TodoItem, len(sorted)),
		children: make(map[int64][]int64),
	}
	for _, item := range sorted {
		t.nodes[item.ID] = item
	}
	for _, item := range sorted {
		if item.ParentID != nil {
			if _, ok := t.nodes[*item.ParentID]; ok {
				t.children[*item.ParentID] = append(t.children[*item.ParentID], item.ID)
				continue
			}
		}
		t.roots = append(t.roots, item.ID)
	}
	for id, item := range t.nodes {
		childIDs := t.children[id]
		item.Children = make([]*TodoItem, 0, len(childIDs))
		for _, childID := range childIDs {
			item.Children = append(item.Children, t.nodes[childID])
		}
	}
	return t
}

// Len returns the number of indexed items.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get looks an item up by id.
func (t *Tree) Get(id int64) (*TodoItem, bool) {
	item, ok := t.nodes[id]
	return item, ok
}

// Roots returns the top-level items with their subtrees attached.
func (t *Tree) Roots() []*TodoItem {
	out := make([]*TodoItem, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nodes[id])
	}
	return out
}

// RootsByList groups the top-level items by their list id.
func (t *Tree) RootsByList() map[int64][]*TodoItem {
	out := make(map[int64][]*TodoItem)
	for _, id := range t.roots {
		item := t.nodes[id]
		out[item.ListID] = append(out[item.ListID], item)
	}
	return out
}

// Subtree returns the item and all of its descendants, depth-first with
// every parent before its children. It returns nil for an unknown id.
func (t *Tree) Subtree(id int64) []*TodoItem {
	var out []*TodoItem
	t.walk(id, make(map[int64]bool), func(item *TodoItem) { out = append(out, item) }, nil)
	return out
}

// PostOrder returns the item and all of its descendants with every child
// before its parent, the order in which they can be deleted.
func (t *Tree) PostOrder(id int64) []*TodoItem {
	var out []*TodoItem
	t.walk(id, make(map[int64]bool), nil, func(item *TodoItem) { out = append(out, item) })
	return out
}

// Descendants returns the subtree of id without id itself.
func (t *Tree) Descendants(id int64) []*TodoItem {
	sub := t.Subtree(id)
	if len(sub) == 0 {
		return nil
	}
	return sub[1:]
}

func (t *Tree) walk(id int64, seen map[int64]bool, pre, post func(*TodoItem)) {
	item, ok := t.nodes[id]
	if !ok || seen[id] {
		return
	}
	seen[id] = true
	if pre != nil {
		pre(item)
	}
	for _, childID := range t.children[id] {
		t.walk(childID, seen, pre, post)
	}
	if post != nil {
		post(item)
	}
}
