package tabs

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// caseless compares tab names alphabetically without case.
var caseless = collate.New(language.English, collate.IgnoreCase)

// Node places one tab in the report hierarchy. A tab's parent, once
// assigned, is never reassigned.
type Node struct {
	Tab      Tab
	Parent   *Node
	Children []*Node
}

// Dir returns the node's output directory relative to the report root,
// nesting children under their parents. The first top-level tab owns
// the root itself.
func (n *Node) Dir() string {
	if n.Parent == nil {
		return n.Tab.Path()
	}
	return path.Join(n.Parent.Dir(), n.Tab.Path())
}

// Walk visits the node and its descendants depth first.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// BuildHierarchy arranges tabs into sorted top-level nodes with their
// children attached. Tabs naming a parent no section defines get an
// auto-created placeholder parent, one per distinct missing name.
// Top-level and child lists both follow the priority-bucket order: the
// parentless "Summary" tab first, other "Summary" tabs next, tabs whose
// name contains "ODC" third, and the rest alphabetically without case;
// ties inside a bucket also resolve alphabetically.
func BuildHierarchy(list []Tab) []*Node {
	nodes := make(map[string]*Node, len(list))
	order := make([]*Node, 0, len(list))
	for _, t := range list {
		n := &Node{Tab: t}
		order = append(order, n)
		if _, dup := nodes[t.Name()]; !dup {
			nodes[t.Name()] = n
		}
	}

	var roots []*Node
	for _, n := range order {
		parent := n.Tab.ParentName()
		if parent == "" {
			roots = append(roots, n)
			continue
		}
		pn, ok := nodes[parent]
		if !ok {
			pn = &Node{Tab: &placeholderTab{name: parent}}
			nodes[parent] = pn
			roots = append(roots, pn)
		}
		n.Parent = pn
		pn.Children = append(pn.Children, n)
	}

	sortNodes(roots)
	for _, n := range nodes {
		sortNodes(n.Children)
	}
	return roots
}

// sortNodes applies the priority-bucket order in place, stably.
func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		bi, bj := bucket(nodes[i]), bucket(nodes[j])
		if bi != bj {
			return bi < bj
		}
		return caseless.CompareString(nodes[i].Tab.Name(), nodes[j].Tab.Name()) < 0
	})
}

func bucket(n *Node) int {
	name := n.Tab.Name()
	switch {
	case name == "Summary" && n.Tab.ParentName() == "":
		return 0
	case name == "Summary":
		return 1
	case strings.Contains(name, "ODC"):
		return 2
	}
	return 3
}
