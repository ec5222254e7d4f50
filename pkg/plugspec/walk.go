// SPDX-License-Identifier: MPL-2.0

package plugspec

// Walk visits every node of the tree depth-first in pre-order: fn runs on a
// node before any of its Deps, siblings in declared order. Duplicate source
// references in different branches are independent nodes and are each
// visited. The tree is never mutated by traversal.
func Walk(tree []Spec, fn func(node *Spec, depth int)) {
	walk(tree, 0, fn)
}

func walk(nodes []Spec, depth int, fn func(*Spec, int)) {
	for i := range nodes {
		node := &nodes[i]
		fn(node, depth)
		walk(node.Deps, depth+1, fn)
	}
}

// Flatten returns the tree's nodes in visit order, parents strictly before
// their dependencies.
func Flatten(tree []Spec) []*Spec {
	var flat []*Spec
	Walk(tree, func(node *Spec, _ int) {
		flat = append(flat, node)
	})
	return flat
}

// Registry flattens the tree into the name-to-spec mapping that separates
// declared packages from untracked directories. Nodes failing validation are
// left out; when two nodes resolve to the same name, the later one wins.
// The registry is rebuilt fresh for every operation and never persisted.
func Registry(tree []Spec) map[string]*Spec {
	reg := make(map[string]*Spec)
	Walk(tree, func(node *Spec, _ int) {
		if node.Validate() != nil {
			return
		}
		reg[node.Name()] = node
	})
	return reg
}
