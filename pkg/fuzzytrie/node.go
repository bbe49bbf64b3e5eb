package fuzzytrie

// Node is either a branch holding one character and its children, or a
// terminal referencing an entry of the value table. Terminals never have
// children.
type Node struct {
	_msgpack struct{} `msgpack:",as_array"`

	Terminal bool
	Char     rune
	Value    int
	Children []Node
}

func newBranch(c rune) Node { return Node{Char: c} }

func newTerminal(i int) Node { return Node{Terminal: true, Value: i} }

// child returns the branch for c, creating it when missing. Fan-out is small,
// so a linear scan is fine.
func (n *Node) child(c rune) *Node {
	for i := range n.Children {
		if ch := &n.Children[i]; !ch.Terminal && ch.Char == c {
			return ch
		}
	}
	n.Children = append(n.Children, newBranch(c))
	return &n.Children[len(n.Children)-1]
}

func (n *Node) hasTerminal(i int) bool {
	for _, ch := range n.Children {
		if ch.Terminal && ch.Value == i {
			return true
		}
	}
	return false
}

// check walks the subtree and reports the first terminal pointing outside a
// table of size n.
func (n *Node) check(size int) (int, bool) {
	if n.Terminal {
		if n.Value < 0 || n.Value >= size {
			return n.Value, false
		}
		return 0, true
	}
	for i := range n.Children {
		if v, ok := n.Children[i].check(size); !ok {
			return v, false
		}
	}
	return 0, true
}

func (n *Node) countNodes() int {
	c := 1
	for i := range n.Children {
		c += n.Children[i].countNodes()
	}
	return c
}
