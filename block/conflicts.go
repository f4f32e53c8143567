package block

import (
	"sort"
)

// Conflicts lists overlapping properties per pseudo-element.
type Conflicts map[string][]string

// Has reports whether prop conflicts under pseudo.
func (c Conflicts) Has(pseudo, prop string) bool {
	for _, p := range c[pseudo] {
		if p == prop {
			return true
		}
	}
	return false
}

// DetectConflicts returns properties a and b both set, grouped by
// pseudo-element. Only pseudo-elements present on both sides are considered.
// Properties are compared after shorthand expansion.
func DetectConflicts(a, b Style) Conflicts {
	out := Conflicts{}
	other := b.Rulesets()
	for _, pseudo := range a.Rulesets().Pseudos() {
		theirs := other.Properties(pseudo)
		if len(theirs) == 0 {
			continue
		}
		var common []string
		for prop := range a.Rulesets().Properties(pseudo) {
			if theirs[prop] {
				common = append(common, prop)
			}
		}
		if len(common) > 0 {
			sort.Strings(common)
			out[pseudo] = common
		}
	}
	return out
}
