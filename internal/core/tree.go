package core

import "sort"

// BuildCategoryTree assembles the chart-of-accounts hierarchy from an
// unordered flat snapshot. The tree is rebuilt fresh on every read; no
// long-lived mutable tree survives across requests.
//
// A node whose ParentID resolves to nothing in the snapshot is promoted to
// root and reported as a TreeWarning rather than failing the build. Roots
// are sorted by code; child lists keep the insertion order of the snapshot,
// which the shallow display relies on. Each node is placed exactly once, so
// nodes whose parent chain forms a cycle simply never surface.
func BuildCategoryTree(flat []AccountCategory) ([]*AccountCategory, []TreeWarning) {
	nodes := make(map[string]*AccountCategory, len(flat))
	order := make([]*AccountCategory, 0, len(flat))
	for i := range flat {
		c := flat[i]
		c.Children = []*AccountCategory{}
		nodes[c.ID] = &c
		order = append(order, &c)
	}

	roots := []*AccountCategory{}
	var warnings []TreeWarning
	for _, n := range order {
		if n.ParentID == "" {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[n.ParentID]
		if !ok {
			warnings = append(warnings, TreeWarning{
				CategoryID: n.ID,
				Code:       n.Code,
				ParentID:   n.ParentID,
			})
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].Code < roots[j].Code
	})
	return roots, warnings
}
