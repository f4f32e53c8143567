package block

// children is an insertion ordered set of named child nodes.
type children[C comparable] struct {
	byName map[string]C
	order  []string
}

func (c *children[C]) getChild(name string) C {
	return c.byName[name]
}

func (c *children[C]) ensureChild(name string, create func() C) C {
	if child, ok := c.byName[name]; ok {
		return child
	}
	if c.byName == nil {
		c.byName = make(map[string]C)
	}
	child := create()
	c.byName[name] = child
	c.order = append(c.order, name)
	return child
}

func (c *children[C]) all() []C {
	out := make([]C, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// lazyBase memoizes base lookup. Absent base is remembered as well, so the
// lookup runs at most once and later tree changes are not observed.
type lazyBase[S comparable] struct {
	base     S
	resolved bool
}

func (l *lazyBase[S]) memo(compute func() S) S {
	if !l.resolved {
		l.base = compute()
		l.resolved = true
	}
	return l.base
}

type based[S any] interface {
	comparable
	Base() S
}

// inheritanceOf returns ancestors of s, furthest first and direct base last.
func inheritanceOf[S based[S]](s S) []S {
	var (
		zero  S
		chain []S
	)
	seen := map[S]bool{s: true}
	for b := s.Base(); b != zero && !seen[b]; b = b.Base() {
		seen[b] = true
		chain = append(chain, b)
	}
	// reverse, root of the chain goes first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// resolveIn walks s and its bases returning the first non zero result of get.
func resolveIn[S based[S], C comparable](s S, get func(S) C) C {
	var (
		zeroS S
		zeroC C
	)
	seen := map[S]bool{}
	for cur := s; cur != zeroS && !seen[cur]; cur = cur.Base() {
		seen[cur] = true
		if c := get(cur); c != zeroC {
			return c
		}
	}
	return zeroC
}
