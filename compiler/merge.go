package compiler

import (
	"errors"
	"fmt"

	"cssblocks/blockerr"
	"cssblocks/selector"
)

// ErrUnsupportedCombinators is returned for combinator pairs selectors cannot
// be merged under yet.
var ErrUnsupportedCombinators = errors.New("merging selectors with these combinators is not supported")

// MergeSelectors returns selectors matching elements matched by both s1 and
// s2, assuming their keys target the same element. Key compounds are merged
// into one, contexts are arranged around it according to combinators. When
// CSS cannot express the intersection with a single selector several
// alternatives are returned.
func MergeSelectors(s1, s2 *selector.Complex) ([]*selector.Complex, error) {
	if s1.Combinators() > 1 && s2.Combinators() > 1 {
		return nil, blockerr.Syntax(nil, "Cannot resolve selectors with more than 1 combinator at this time: %q and %q", s1, s2)
	}

	ctx1, c1, k1 := s1.Split()
	ctx2, c2, k2 := s2.Split()

	key, err := mergeCompounds(k1, k2)
	if err != nil {
		return nil, err
	}

	switch {
	case ctx1 == nil && ctx2 == nil:
		return []*selector.Complex{selector.NewComplex(key)}, nil
	case ctx2 == nil:
		return []*selector.Complex{ctx1.Append(c1, key)}, nil
	case ctx1 == nil:
		return []*selector.Complex{ctx2.Append(c2, key)}, nil
	}

	switch {
	case c1 == c2 && c1.Contiguous():
		// .a > .k with .b > .k is .a.b > .k
		merged, err := mergeContexts(ctx1, ctx2)
		if err != nil {
			return nil, err
		}
		return []*selector.Complex{merged.Append(c1, key)}, nil

	case c1.Hierarchical() && c2.Sibling():
		// parent relation must be outermost: .p > .s + .k
		return []*selector.Complex{ctx1.Concat(c1, ctx2).Append(c2, key)}, nil

	case c1.Sibling() && c2.Hierarchical():
		return []*selector.Complex{ctx2.Concat(c2, ctx1).Append(c1, key)}, nil

	case c1 == c2:
		// both non contiguous: contexts may be the same element or either may
		// come first
		merged, err := mergeContexts(ctx1, ctx2)
		if err != nil {
			return nil, err
		}
		return []*selector.Complex{
			merged.Append(c1, key),
			ctx1.Clone().Concat(c1, ctx2).Append(c1, key.Clone()),
			ctx2.Clone().Concat(c1, ctx1).Append(c1, key.Clone()),
		}, nil

	case c1.Hierarchical() == c2.Hierarchical():
		// one contiguous, one not: the contiguous context is either the same
		// element as the other one or comes after it
		far, farComb, near, nearComb := ctx1, c1, ctx2, c2
		if c1.Contiguous() {
			far, farComb, near, nearComb = ctx2, c2, ctx1, c1
		}
		merged, err := mergeContexts(far, near)
		if err != nil {
			return nil, err
		}
		return []*selector.Complex{
			far.Clone().Concat(farComb, near).Append(nearComb, key),
			merged.Append(nearComb, key.Clone()),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q and %q", ErrUnsupportedCombinators, c1, c2)
}

// mergeContexts merges key compounds of two contexts. Only one of them may
// have further compounds, those are kept in front.
func mergeContexts(a, b *selector.Complex) (*selector.Complex, error) {
	if a.Combinators() > 0 && b.Combinators() > 0 {
		return nil, blockerr.Syntax(nil, "Cannot resolve selectors with more than 1 combinator at this time: %q and %q", a, b)
	}
	prefixA, combA, keyA := a.Split()
	prefixB, combB, keyB := b.Split()
	key, err := mergeCompounds(keyA, keyB)
	if err != nil {
		return nil, err
	}
	switch {
	case prefixA != nil:
		return prefixA.Append(combA, key), nil
	case prefixB != nil:
		return prefixB.Append(combB, key), nil
	}
	return selector.NewComplex(key), nil
}

// mergeCompounds returns compound with nodes of both: type selector first,
// pseudo-element last, duplicates dropped.
func mergeCompounds(a, b *selector.Compound) (*selector.Compound, error) {
	peA, okA := a.PseudoElement()
	peB, okB := b.PseudoElement()
	if okA && okB && peA != peB {
		return nil, blockerr.Syntax(nil, "Cannot merge selectors targeting different pseudo-elements: %q and %q", a, b)
	}
	tagA, hasA := a.Tag()
	tagB, hasB := b.Tag()
	if hasA && hasB && tagA != tagB {
		return nil, blockerr.Syntax(nil, "Cannot merge selectors with different type selectors: %q and %q", a, b)
	}

	var head, body, tail []selector.Node
	seen := make(map[selector.Node]bool)
	for _, n := range append(append([]selector.Node(nil), a.Nodes...), b.Nodes...) {
		if seen[n] {
			continue
		}
		seen[n] = true
		switch v := n.(type) {
		case selector.Tag:
			head = append(head[:0], v)
		case selector.Universal:
			if len(head) == 0 {
				head = append(head, v)
			}
		case selector.Pseudo:
			if v.IsElement {
				tail = append(tail, v)
				continue
			}
			body = append(body, v)
		default:
			body = append(body, v)
		}
	}
	nodes := make([]selector.Node, 0, len(head)+len(body)+len(tail))
	nodes = append(nodes, head...)
	nodes = append(nodes, body...)
	nodes = append(nodes, tail...)
	return &selector.Compound{Nodes: nodes}, nil
}
