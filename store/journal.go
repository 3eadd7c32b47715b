package store

import (
	"fmt"

	"github.com/jrife/agency/node"
)

type undoKind int

const (
	// put the saved state back into the node at path
	undoRestore undoKind = iota
	// remove child name from the node at path
	undoUnlink
	// re-attach child to the node at path in its previous position
	undoRelink
)

type undo struct {
	kind  undoKind
	path  []string
	name  string
	saved *node.Node
	order []string
}

// journal records how to undo every mutation a transaction makes so that
// a transaction failing halfway leaves the tree exactly as it found it.
// Entries address nodes by path rather than by pointer: after undoing
// every later entry the tree is back in the state that entry was recorded
// in, so the path resolves to the node the entry was made for.
type journal struct {
	root    *node.Node
	entries []undo
}

func newJournal(root *node.Node) *journal {
	return &journal{root: root}
}

func (j *journal) restore(path []string, saved *node.Node) {
	j.entries = append(j.entries, undo{kind: undoRestore, path: path, saved: saved})
}

func (j *journal) unlink(path []string, name string) {
	j.entries = append(j.entries, undo{kind: undoUnlink, path: path, name: name})
}

func (j *journal) relink(path []string, child *node.Node, order []string) {
	j.entries = append(j.entries, undo{kind: undoRelink, path: path, saved: child, order: order})
}

// rollback undoes every recorded entry, newest first
func (j *journal) rollback() error {
	for i := len(j.entries) - 1; i >= 0; i-- {
		entry := j.entries[i]
		target, err := j.root.Lookup(entry.path)

		if err != nil {
			return fmt.Errorf("could not undo entry %d: %s", i, err)
		}

		switch entry.kind {
		case undoRestore:
			target.Restore(entry.saved)
		case undoUnlink:
			target.RemoveChild(entry.name)
		case undoRelink:
			if err := target.Attach(entry.saved, entry.order); err != nil {
				return fmt.Errorf("could not undo entry %d: %s", i, err)
			}
		}
	}

	j.entries = nil

	return nil
}
