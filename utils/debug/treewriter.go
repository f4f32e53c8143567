// Package debug renders human readable dumps of compiler structures.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	connMiddle = "├── "
	connLast   = "└── "
	pipe       = "│   "
	blank      = "    "
)

// Node is an item of connector style tree.
type Node struct {
	Label    string
	Children []*Node
}

// NewNode creates detached tree node.
func NewNode(format string, args ...any) *Node {
	return &Node{Label: fmt.Sprintf(format, args...)}
}

// Add appends child node and returns it.
func (n *Node) Add(format string, args ...any) *Node {
	child := NewNode(format, args...)
	n.Children = append(n.Children, child)
	return child
}

// TreeWriter accumulates indented debug output.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Tree writes root label at depth followed by its descendants drawn with
// box connectors.
func (tw TreeWriter) Tree(depth int, root *Node) {
	tw.Line(depth, "%s", root.Label)
	tw.branches(depth, "", root.Children)
}

func (tw TreeWriter) branches(depth int, prefix string, nodes []*Node) {
	for i, n := range nodes {
		conn, next := connMiddle, pipe
		if i == len(nodes)-1 {
			conn, next = connLast, blank
		}
		tw.indent(depth)
		tw.w.WriteString(prefix)
		tw.w.WriteString(conn)
		tw.w.WriteString(n.Label)
		tw.w.WriteByte('\n')
		tw.branches(depth, prefix+next, n.Children)
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
