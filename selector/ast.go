// Package selector parses CSS selector lists into a small mutable AST used for
// block analysis, rewriting and merging.
package selector

import (
	"slices"
	"strings"
)

// Node is a simple selector inside a compound selector.
type Node interface {
	String() string
	isNode()
}

// Tag is a type selector.
type Tag struct {
	Namespace string
	Name      string
}

func (Tag) isNode() {}

func (n Tag) String() string {
	if n.Namespace != "" {
		return n.Namespace + "|" + n.Name
	}
	return n.Name
}

// Universal is "*".
type Universal struct{}

func (Universal) isNode() {}

func (Universal) String() string { return "*" }

// Class is a class selector.
type Class struct {
	Name string
}

func (Class) isNode() {}

func (n Class) String() string { return "." + n.Name }

// ID is an id selector.
type ID struct {
	Name string
}

func (ID) isNode() {}

func (n ID) String() string { return "#" + n.Name }

// Attribute is an attribute selector. Op is either empty or one of
// "=", "~=", "|=", "^=", "$=", "*=".
type Attribute struct {
	Namespace string
	Name      string
	Op        string
	Value     string
	Quoted    bool
	Modifier  string // "i" or "s"
}

func (Attribute) isNode() {}

func (n Attribute) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	if n.Namespace != "" {
		sb.WriteString(n.Namespace)
		sb.WriteByte('|')
	}
	sb.WriteString(n.Name)
	if n.Op != "" {
		sb.WriteString(n.Op)
		if n.Quoted {
			sb.WriteString(quote(n.Value))
		} else {
			sb.WriteString(n.Value)
		}
		if n.Modifier != "" {
			sb.WriteByte(' ')
			sb.WriteString(n.Modifier)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Pseudo is a pseudo-class or pseudo-element.
type Pseudo struct {
	Name      string
	IsElement bool   // prefixed by "::"
	Func      bool   // has argument list
	Args      string // raw argument text
}

func (Pseudo) isNode() {}

func (n Pseudo) String() string {
	prefix := ":"
	if n.IsElement {
		prefix = "::"
	}
	if n.Func {
		return prefix + n.Name + "(" + n.Args + ")"
	}
	return prefix + n.Name
}

// IsScope reports whether node is ":scope".
func IsScope(n Node) bool {
	p, ok := n.(Pseudo)
	return ok && !p.IsElement && !p.Func && p.Name == "scope"
}

// Combinator links compound selectors.
type Combinator string

const (
	None       Combinator = ""
	Descendant Combinator = " "
	Child      Combinator = ">"
	Adjacent   Combinator = "+"
	General    Combinator = "~"
)

// Hierarchical reports whether combinator walks ancestors (descendant or child).
func (c Combinator) Hierarchical() bool {
	return c == Descendant || c == Child
}

// Sibling reports whether combinator walks preceding siblings.
func (c Combinator) Sibling() bool {
	return c == Adjacent || c == General
}

// Contiguous reports whether combinator requires immediate adjacency.
func (c Combinator) Contiguous() bool {
	return c == Child || c == Adjacent
}

func (c Combinator) join() string {
	switch c {
	case None:
		return ""
	case Descendant:
		return " "
	}
	return " " + string(c) + " "
}

// Compound is a sequence of simple selectors not separated by combinators.
// Combinator links it to the previous compound and is None for the first one.
type Compound struct {
	Combinator Combinator
	Nodes      []Node
}

// Clone returns copy of the compound which can be modified independently.
func (c *Compound) Clone() *Compound {
	return &Compound{Combinator: c.Combinator, Nodes: slices.Clone(c.Nodes)}
}

func (c *Compound) String() string {
	var sb strings.Builder
	for _, n := range c.Nodes {
		sb.WriteString(n.String())
	}
	return sb.String()
}

// PseudoElement returns pseudo-element of the compound if any.
func (c *Compound) PseudoElement() (Pseudo, bool) {
	for _, n := range c.Nodes {
		if p, ok := n.(Pseudo); ok && p.IsElement {
			return p, true
		}
	}
	return Pseudo{}, false
}

// Tag returns type selector of the compound if any.
func (c *Compound) Tag() (Tag, bool) {
	for _, n := range c.Nodes {
		if t, ok := n.(Tag); ok {
			return t, true
		}
	}
	return Tag{}, false
}

// Complex is a complex selector: compounds joined by combinators.
type Complex struct {
	Compounds []*Compound
}

// NewComplex builds complex selector from a single compound.
func NewComplex(key *Compound) *Complex {
	key.Combinator = None
	return &Complex{Compounds: []*Compound{key}}
}

// Clone returns deep copy.
func (s *Complex) Clone() *Complex {
	c := &Complex{Compounds: make([]*Compound, 0, len(s.Compounds))}
	for _, cmp := range s.Compounds {
		c.Compounds = append(c.Compounds, cmp.Clone())
	}
	return c
}

// Key returns rightmost compound.
func (s *Complex) Key() *Compound {
	if len(s.Compounds) == 0 {
		return nil
	}
	return s.Compounds[len(s.Compounds)-1]
}

// Combinators returns number of combinators in the selector.
func (s *Complex) Combinators() int {
	return max(len(s.Compounds)-1, 0)
}

// Split breaks selector into context (nil when selector is a single
// compound), combinator joining context and key, and the key compound. Parts
// are copies.
func (s *Complex) Split() (context *Complex, comb Combinator, key *Compound) {
	c := s.Clone()
	key = c.Compounds[len(c.Compounds)-1]
	comb = key.Combinator
	key.Combinator = None
	if len(c.Compounds) > 1 {
		context = &Complex{Compounds: c.Compounds[:len(c.Compounds)-1]}
	}
	return context, comb, key
}

// Append adds compound to the right using given combinator.
func (s *Complex) Append(comb Combinator, cmp *Compound) *Complex {
	if len(s.Compounds) == 0 {
		comb = None
	}
	cmp.Combinator = comb
	s.Compounds = append(s.Compounds, cmp)
	return s
}

// Concat appends all compounds of other, linking them with comb.
func (s *Complex) Concat(comb Combinator, other *Complex) *Complex {
	for i, cmp := range other.Clone().Compounds {
		if i == 0 {
			s.Append(comb, cmp)
			continue
		}
		s.Append(cmp.Combinator, cmp)
	}
	return s
}

func (s *Complex) String() string {
	var sb strings.Builder
	for _, c := range s.Compounds {
		sb.WriteString(c.Combinator.join())
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Join serializes selector list with separator.
func Join(list []*Complex, sep string) string {
	parts := make([]string, 0, len(list))
	for _, s := range list {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, sep)
}

func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
