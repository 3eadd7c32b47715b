package node

import (
	"fmt"
	"io"
	"strings"
)

// WalkFunc is called for every node visited by Walk. depth is the
// number of parent hops between the node and the root of its tree.
type WalkFunc func(n *Node, depth int) error

// Walk visits n and its descendants depth first, parents before children
func (n *Node) Walk(fn WalkFunc) error {
	return n.walk(fn, n.Depth())
}

func (n *Node) walk(fn WalkFunc, depth int) error {
	if err := fn(n, depth); err != nil {
		return err
	}

	for _, child := range n.Children() {
		if err := child.walk(fn, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// Render writes an indented dump of the subtree rooted at n, two spaces
// per level of depth:
//
//	/ :
//	  a :
//	    b : 1
func (n *Node) Render(w io.Writer) error {
	return n.Walk(func(n *Node, depth int) error {
		var err error

		if n.kind == Leaf {
			_, err = fmt.Fprintf(w, "%s%s : %s\n", strings.Repeat("  ", depth), n.name, n.value)
		} else {
			_, err = fmt.Fprintf(w, "%s%s :\n", strings.Repeat("  ", depth), n.name)
		}

		return err
	})
}

func (n *Node) String() string {
	var builder strings.Builder

	n.Render(&builder)

	return builder.String()
}
