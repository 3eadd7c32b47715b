package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jrife/agency/node"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type palette struct {
	name  func(string, ...any) string
	value func(string, ...any) string
	sep   func(string, ...any) string
	plus  func(string, ...any) string
	minus func(string, ...any) string
}

func plainSprintf(f string, args ...any) string {
	return fmt.Sprintf(f, args...)
}

func newPalette(colored bool) *palette {
	if !colored {
		return &palette{
			name:  plainSprintf,
			value: plainSprintf,
			sep:   plainSprintf,
			plus:  plainSprintf,
			minus: plainSprintf,
		}
	}
	sprintf := func(attrs ...color.Attribute) func(string, ...any) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintfFunc()
	}
	return &palette{
		name:  sprintf(color.FgCyan),
		value: sprintf(color.FgYellow),
		sep:   sprintf(color.Faint),
		plus:  sprintf(color.FgGreen),
		minus: sprintf(color.FgRed),
	}
}

// renderTree writes the same layout as node.Render with names, values
// and separators colored by p.
func renderTree(w io.Writer, root *node.Node, p *palette) error {
	return root.Walk(func(n *node.Node, depth int) error {
		indent := strings.Repeat("  ", depth)
		var err error
		if n.Kind() == node.Leaf {
			_, err = fmt.Fprintf(w, "%s%s%s%s\n", indent, p.name("%s", n.Name()), p.sep(" : "), p.value("%s", n.Value()))
		} else {
			_, err = fmt.Fprintf(w, "%s%s%s\n", indent, p.name("%s", n.Name()), p.sep(" :"))
		}
		return err
	})
}

// renderDiff writes a line diff of two renders, prefixing removed lines
// with "- " and added lines with "+ ". Unchanged lines are omitted.
func renderDiff(w io.Writer, before, after string, p *palette) error {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		var prefix string
		var sprintf func(string, ...any) string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, sprintf = "- ", p.minus
		case diffmatchpatch.DiffInsert:
			prefix, sprintf = "+ ", p.plus
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if _, err := io.WriteString(w, sprintf("%s%s", prefix, strings.TrimSuffix(line, "\n"))+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
