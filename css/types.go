package css

import (
	"slices"
	"strings"

	"cssblocks/blockerr"
)

// Node is a single item of the stylesheet tree.
type Node interface {
	// Parent returns container holding the node or nil for detached node.
	Parent() Container
	// Loc returns source location of the node.
	Loc() blockerr.Location

	setParent(Container)
	cloneNode() Node
}

// Container is a node (or stylesheet) holding other nodes.
type Container interface {
	Nodes() []Node
	Append(nodes ...Node)
	Prepend(nodes ...Node)
	InsertAfter(existing Node, nodes ...Node) bool
	RemoveChild(n Node) bool
}

type node struct {
	parent Container
	loc    blockerr.Location
}

func (n *node) Parent() Container {
	return n.parent
}

func (n *node) Loc() blockerr.Location {
	return n.loc
}

// SetLoc overrides source location, useful for synthesized nodes.
func (n *node) SetLoc(loc blockerr.Location) {
	n.loc = loc
}

func (n *node) setParent(c Container) {
	n.parent = c
}

// container implements child management, owner must be set by constructor so
// appended nodes get proper parent.
type container struct {
	owner Container
	nodes []Node
}

func (c *container) Nodes() []Node {
	return c.nodes
}

func (c *container) adopt(nodes []Node) {
	for _, n := range nodes {
		if p := n.Parent(); p != nil && p != c.owner {
			p.RemoveChild(n)
		}
		n.setParent(c.owner)
	}
}

func (c *container) Append(nodes ...Node) {
	c.adopt(nodes)
	c.nodes = append(c.nodes, nodes...)
}

func (c *container) Prepend(nodes ...Node) {
	c.adopt(nodes)
	c.nodes = append(slices.Clone(nodes), c.nodes...)
}

// InsertAfter puts nodes right after existing, returns false when existing is
// not a child of this container.
func (c *container) InsertAfter(existing Node, nodes ...Node) bool {
	idx := slices.Index(c.nodes, existing)
	if idx < 0 {
		return false
	}
	c.adopt(nodes)
	c.nodes = slices.Insert(c.nodes, idx+1, nodes...)
	return true
}

func (c *container) RemoveChild(n Node) bool {
	idx := slices.Index(c.nodes, n)
	if idx < 0 {
		return false
	}
	c.nodes = slices.Delete(c.nodes, idx, idx+1)
	n.setParent(nil)
	return true
}

// Stylesheet is the root of a parsed CSS file.
type Stylesheet struct {
	container

	Source string // file path the stylesheet was read from
}

// NewStylesheet creates empty stylesheet for the source path.
func NewStylesheet(source string) *Stylesheet {
	s := &Stylesheet{Source: source}
	s.owner = s
	return s
}

// Clone returns deep copy of the stylesheet.
func (s *Stylesheet) Clone() *Stylesheet {
	c := NewStylesheet(s.Source)
	c.Append(cloneNodes(s.nodes)...)
	return c
}

// Rule is a qualified rule: selector list and a declaration block.
type Rule struct {
	node
	container

	Selector string
}

// NewRule creates detached rule.
func NewRule(selector string) *Rule {
	r := &Rule{Selector: selector}
	r.owner = r
	return r
}

// Remove detaches rule from its parent.
func (r *Rule) Remove() {
	removeNode(r)
}

// Declarations returns declarations directly inside the rule in source order.
func (r *Rule) Declarations() []*Declaration {
	var decls []*Declaration
	for _, n := range r.nodes {
		if d, ok := n.(*Declaration); ok {
			decls = append(decls, d)
		}
	}
	return decls
}

// InKeyframes reports whether the rule is a keyframe selector block.
func (r *Rule) InKeyframes() bool {
	for p := r.parent; p != nil; {
		at, ok := p.(*AtRule)
		if !ok {
			return false
		}
		if strings.HasSuffix(at.Name, "keyframes") {
			return true
		}
		p = at.parent
	}
	return false
}

func (r *Rule) cloneNode() Node {
	c := NewRule(r.Selector)
	c.loc = r.loc
	c.Append(cloneNodes(r.nodes)...)
	return c
}

// Clone returns detached deep copy of the rule.
func (r *Rule) Clone() *Rule {
	return r.cloneNode().(*Rule)
}

// AtRule is an at-rule, with or without block.
type AtRule struct {
	node
	container

	Name     string // without leading '@', lowercased
	Params   string
	HasBlock bool
}

// NewAtRule creates detached at-rule.
func NewAtRule(name, params string, hasBlock bool) *AtRule {
	a := &AtRule{Name: name, Params: params, HasBlock: hasBlock}
	a.owner = a
	return a
}

// Remove detaches at-rule from its parent.
func (a *AtRule) Remove() {
	removeNode(a)
}

func (a *AtRule) cloneNode() Node {
	c := NewAtRule(a.Name, a.Params, a.HasBlock)
	c.loc = a.loc
	c.Append(cloneNodes(a.nodes)...)
	return c
}

// Declaration is a single property declaration.
type Declaration struct {
	node

	Prop      string
	Value     string
	Important bool
}

// NewDeclaration creates detached declaration.
func NewDeclaration(prop, value string) *Declaration {
	return &Declaration{Prop: prop, Value: value}
}

// Remove detaches declaration from its parent.
func (d *Declaration) Remove() {
	removeNode(d)
}

// Rule returns rule declaration belongs to, nil if parent is not a rule.
func (d *Declaration) Rule() *Rule {
	r, _ := d.parent.(*Rule)
	return r
}

func (d *Declaration) cloneNode() Node {
	c := *d
	c.parent = nil
	return &c
}

// Clone returns detached copy of the declaration.
func (d *Declaration) Clone() *Declaration {
	return d.cloneNode().(*Declaration)
}

// Comment is a CSS comment, Text excludes delimiters.
type Comment struct {
	node

	Text string
}

// NewComment creates detached comment.
func NewComment(text string) *Comment {
	return &Comment{Text: text}
}

// Remove detaches comment from its parent.
func (c *Comment) Remove() {
	removeNode(c)
}

func (c *Comment) cloneNode() Node {
	n := *c
	n.parent = nil
	return &n
}

func removeNode(n Node) {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

func cloneNodes(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.cloneNode())
	}
	return out
}

// WalkRules calls fn for every rule under c, depth first in source order. It
// iterates over a snapshot so fn may remove the rule or insert siblings.
// Walking stops on first error.
func WalkRules(c Container, fn func(*Rule) error) error {
	for _, n := range slices.Clone(c.Nodes()) {
		switch v := n.(type) {
		case *Rule:
			if err := fn(v); err != nil {
				return err
			}
		case *AtRule:
			if err := WalkRules(v, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// WalkDecls calls fn for every declaration under c in source order.
func WalkDecls(c Container, fn func(*Declaration) error) error {
	for _, n := range slices.Clone(c.Nodes()) {
		switch v := n.(type) {
		case *Declaration:
			if err := fn(v); err != nil {
				return err
			}
		case *Rule:
			if err := WalkDecls(v, fn); err != nil {
				return err
			}
		case *AtRule:
			if err := WalkDecls(v, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// WalkAtRules calls fn for every at-rule under c accepted by match (nil
// matches all).
func WalkAtRules(c Container, match func(name string) bool, fn func(*AtRule) error) error {
	for _, n := range slices.Clone(c.Nodes()) {
		at, ok := n.(*AtRule)
		if !ok {
			continue
		}
		if match == nil || match(at.Name) {
			if err := fn(at); err != nil {
				return err
			}
		}
		if at.Parent() == nil {
			// removed by fn
			continue
		}
		if err := WalkAtRules(at, match, fn); err != nil {
			return err
		}
	}
	return nil
}

// AtRules returns at-rules enclosing n, outermost first.
func AtRules(n Node) []*AtRule {
	var out []*AtRule
	for p := n.Parent(); p != nil; {
		at, ok := p.(*AtRule)
		if !ok {
			break
		}
		out = append(out, at)
		p = at.Parent()
	}
	slices.Reverse(out)
	return out
}
