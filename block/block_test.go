package block_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/common"
	"cssblocks/css"
)

// addRules parses text and records rulesets for every selector key which
// targets an existing style of b.
func addRules(t *testing.T, b *block.Block, text string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(text), b.Identifier())
	if err != nil {
		t.Fatalf("unable to parse: %v", err)
	}
	err = css.WalkRules(sheet, func(r *css.Rule) error {
		list, err := b.ParseSelectors(r.Selector)
		if err != nil {
			return err
		}
		for _, sel := range list {
			if s := b.StyleForCompound(sel.Key()); s != nil {
				s.Rulesets().AddRuleset(b.Identifier(), r, sel)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unable to add rules: %v", err)
	}
	b.SetStylesheet(sheet)
	return sheet
}

func newBlock(name string) *block.Block {
	b := block.New(name+".block.css", name)
	b.SetGUID(block.GenerateGUID(b.Identifier(), 5))
	return b
}

func TestSetName(t *testing.T) {
	b := block.New("a.css", "a")
	if err := b.SetName("first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name() != "first" {
		t.Errorf("Name() = %q, want %q", b.Name(), "first")
	}
	err := b.SetName("second")
	if err == nil || !strings.Contains(err.Error(), "Cannot set block name more than once.") {
		t.Errorf("expected name reset error, got %v", err)
	}
}

func TestInheritance(t *testing.T) {
	grand := newBlock("grand")
	parent := newBlock("parent")
	child := newBlock("child")
	parent.SetBase("grand", grand)
	child.SetBase("parent", parent)

	grand.EnsureClass("title").EnsureAttribute("state", "open").EnsureValue("")
	parent.EnsureClass("title")
	title := child.EnsureClass("title")

	base := title.Base()
	if base == nil || base.Block() != parent {
		t.Fatalf("expected base from parent block, got %v", base)
	}
	if title.Base() != base {
		t.Error("base is not memoized")
	}

	chain := title.ResolveInheritance()
	if len(chain) != 2 || chain[0].Block() != grand || chain[1].Block() != parent {
		t.Errorf("unexpected inheritance order: %v", chain)
	}
	if blocks := child.ResolveInheritance(); len(blocks) != 2 || blocks[0] != grand || blocks[1] != parent {
		t.Errorf("unexpected block inheritance order: %v", blocks)
	}

	if v := title.ResolveAttributeValue("state", "open", ""); v == nil || v.Block() != grand {
		t.Errorf("attribute value not resolved through base chain: %v", v)
	}
	if got := child.ResolveClass("missing"); got != nil {
		t.Errorf("expected nil for missing class, got %v", got)
	}
	if len(grand.EnsureClass("title").ResolveInheritance()) != 0 {
		t.Error("expected empty inheritance for root of the chain")
	}
	if !grand.IsAncestorOf(child) || child.IsAncestorOf(grand) {
		t.Error("unexpected ancestor relation")
	}
}

func TestBaseMemoizedWhenAbsent(t *testing.T) {
	b := newBlock("b")
	c := b.EnsureClass("x")
	if c.Base() != nil {
		t.Fatal("expected no base")
	}
	// base set after first access is not observed
	base := newBlock("base")
	base.EnsureClass("x")
	b.SetBase("base", base)
	if c.Base() != nil {
		t.Error("absent base was not memoized")
	}
}

func TestCSSClass(t *testing.T) {
	b := newBlock("card")
	title := b.EnsureClass("title")
	size := title.EnsureAttribute("state", "size").EnsureValue("big")
	open := b.RootClass().EnsureAttribute("state", "open").EnsureValue("")

	tests := []struct {
		name     string
		style    block.Style
		mode     common.OutputMode
		reserved map[string]bool
		want     string
	}{
		{"root", b.RootClass(), common.OutputModeBem, nil, "card"},
		{"class", title, common.OutputModeBem, nil, "card__title"},
		{"value", size, common.OutputModeBem, nil, "card__title--size-big"},
		{"presence", open, common.OutputModeBem, nil, "card--open"},
		{"unique root", b.RootClass(), common.OutputModeBemUnique, nil, "card_" + b.GUID()},
		{"unique class", title, common.OutputModeBemUnique, nil, "card_" + b.GUID() + "__title"},
		{"reserved", title, common.OutputModeBem, map[string]bool{"card__title": true}, "card_" + b.GUID() + "__title"},
		{"reserved other", title, common.OutputModeBem, map[string]bool{"card": true}, "card__title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.style.CSSClass(tt.mode, tt.reserved); got != tt.want {
				t.Errorf("CSSClass() = %q, want %q", got, tt.want)
			}
		})
	}

	title.AddAlias("headline")
	if got := title.CSSClasses(common.OutputModeBem, nil); len(got) != 2 || got[1] != "headline" {
		t.Errorf("CSSClasses() = %v", got)
	}
}

func TestAsSource(t *testing.T) {
	b := newBlock("card")
	title := b.EnsureClass("title")
	tests := []struct {
		style block.Style
		want  string
	}{
		{b.RootClass(), ":scope"},
		{title, ".title"},
		{title.EnsureAttribute("state", "size").EnsureValue("big"), ".title[state|size=big]"},
		{b.RootClass().EnsureAttribute("state", "open").EnsureValue(""), ":scope[state|open]"},
	}
	for _, tt := range tests {
		if got := tt.style.AsSource(); got != tt.want {
			t.Errorf("AsSource() = %q, want %q", got, tt.want)
		}
		if b.Find(tt.want) != tt.style {
			t.Errorf("Find(%q) did not return the style", tt.want)
		}
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    block.Path
		wantErr bool
	}{
		{"", block.Path{Class: ":scope"}, false},
		{".", block.Path{Class: ":scope"}, false},
		{".foo", block.Path{Class: "foo"}, false},
		{":scope", block.Path{Class: ":scope"}, false},
		{"other", block.Path{Block: "other", Class: ":scope"}, false},
		{"other:scope", block.Path{Block: "other", Class: ":scope"}, false},
		{"other.foo", block.Path{Block: "other", Class: "foo"}, false},
		{"[state|open]", block.Path{Class: ":scope", Namespace: "state", Attribute: "open"}, false},
		{".foo[size=big]", block.Path{Class: "foo", Namespace: "state", Attribute: "size", Value: "big"}, false},
		{`other.foo[state|size="big"]`, block.Path{Block: "other", Class: "foo", Namespace: "state", Attribute: "size", Value: "big"}, false},
		{".foo.bar", block.Path{}, true},
		{".foo[open", block.Path{}, true},
		{"..foo", block.Path{}, true},
		{".foo [open]", block.Path{}, true},
		{":hover", block.Path{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := block.ParsePath(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePath(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	b := newBlock("main")
	other := newBlock("other")
	foo := other.EnsureClass("foo")
	big := foo.EnsureAttribute("state", "size").EnsureValue("big")
	b.AddBlockReference("o", other)
	local := b.EnsureClass("local")

	loc := &blockerr.Location{Filename: "main.block.css", Line: 3, Column: 5}

	tests := []struct {
		path string
		want block.Style
	}{
		{"", b.RootClass()},
		{".local", local},
		{"o.foo", foo},
		{"o.foo[state|size=big]", big},
		{"o:scope", other.RootClass()},
	}
	for _, tt := range tests {
		got, err := b.Lookup(tt.path, loc)
		if err != nil {
			t.Errorf("Lookup(%q) unexpected error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	for _, missing := range []string{"x.foo", "o.bar", "o.foo[state|size=small]"} {
		got, err := b.Lookup(missing, nil)
		if got != nil || err != nil {
			t.Errorf("Lookup(%q, nil) = %v, %v; want nil, nil", missing, got, err)
		}
		_, err = b.Lookup(missing, loc)
		if !blockerr.Is(err, blockerr.KindInvalidBlockSyntax) {
			t.Errorf("Lookup(%q, loc) error = %v, want InvalidBlockSyntax", missing, err)
		}
		if l := blockerr.LocOf(err); l == nil || l.Line != 3 {
			t.Errorf("Lookup(%q) error lost location: %v", missing, l)
		}
	}

	if _, err := b.Lookup(".a.b", nil); !blockerr.Is(err, blockerr.KindBlockPath) {
		t.Errorf("expected block path error for malformed path, got %v", err)
	}

	// exports are separate from imports
	if s, _ := b.ExternalLookup("o.foo", nil); s != nil {
		t.Errorf("ExternalLookup found unexported block: %v", s)
	}
	b.AddBlockExport("ex", other)
	if s, err := b.ExternalLookup("ex.foo", loc); err != nil || s != foo {
		t.Errorf("ExternalLookup(ex.foo) = %v, %v", s, err)
	}
}

func TestCheckImplementations(t *testing.T) {
	iface := newBlock("iface")
	for _, name := range []string{"a", "b", "c", "d"} {
		iface.EnsureClass(name)
	}
	impl := newBlock("impl")
	impl.EnsureClass("a")
	impl.EnsureClass("b")
	impl.AddImplements(iface)

	err := impl.CheckImplementations()
	if err == nil {
		t.Fatal("expected missing implementation error")
	}
	// root class is implemented implicitly, c and d missing plus one more below
	if !strings.Contains(err.Error(), "Missing implementation(s) for: .c, .d from iface.block.css") {
		t.Errorf("unexpected error: %v", err)
	}

	iface.EnsureClass("e")
	err = impl.CheckImplementations()
	if err == nil || !strings.Contains(err.Error(), ".c, .d, .e") {
		t.Errorf("expected all three missing styles listed, got %v", err)
	}

	impl.EnsureClass("c")
	impl.EnsureClass("d")
	impl.EnsureClass("e")
	if err := impl.CheckImplementations(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAssertValid(t *testing.T) {
	b := newBlock("b")
	if err := b.AssertValid(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.AddError(blockerr.Syntax(nil, "first"))
	if err := b.AssertValid(); blockerr.Is(err, blockerr.KindCascading) {
		t.Errorf("single error should not cascade: %v", err)
	}
	b.AddError(blockerr.Syntax(nil, "second"))
	err := b.AssertValid()
	if !blockerr.Is(err, blockerr.KindCascading) {
		t.Fatalf("expected cascading error, got %v", err)
	}
	if !strings.Contains(err.Error(), "first") || !strings.Contains(err.Error(), "second") {
		t.Errorf("cascading error lost messages: %v", err)
	}
}

func TestTransitiveBlockDependencies(t *testing.T) {
	a := newBlock("a")
	b := newBlock("b")
	c := newBlock("c")
	a.AddBlockReference("b", b)
	b.AddBlockReference("c", c)
	c.AddBlockReference("a", a) // cycle

	deps := a.TransitiveBlockDependencies()
	if len(deps) != 2 || deps[0] != b || deps[1] != c {
		t.Errorf("unexpected dependencies: %v", deps)
	}
}

func TestResolveStyles(t *testing.T) {
	b := newBlock("b")
	other := newBlock("other")
	shared := other.EnsureClass("shared")
	conditional := other.EnsureClass("conditional")

	title := b.EnsureClass("title")
	open := title.EnsureAttribute("state", "open").EnsureValue("")
	title.AddComposition(shared, nil)
	title.AddComposition(conditional, []*block.AttrValue{open})

	got := open.ResolveStyles()
	want := []block.Style{open, title, shared}
	if len(got) != len(want) {
		t.Fatalf("ResolveStyles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ResolveStyles()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !title.Composes(shared, false) || title.Composes(b.RootClass(), true) {
		t.Error("unexpected Composes() result")
	}
}

func TestDetectConflicts(t *testing.T) {
	a := newBlock("a")
	a.EnsureClass("x")
	addRules(t, a, `.x { border: 1px solid red; color: red; }`)

	b := newBlock("b")
	b.EnsureClass("y")
	addRules(t, b, `.y::before { color: blue; } .y { border-left-color: blue; }`)

	got := block.DetectConflicts(a.GetClass("x"), b.GetClass("y"))
	if _, ok := got["::before"]; ok {
		t.Error("pseudo-element present on one side produced conflicts")
	}
	if !got.Has("::self", "border-left-color") {
		t.Errorf("expected border-left-color conflict, got %v", got)
	}
	if got.Has("::self", "color") {
		t.Errorf("color conflicts across pseudo-elements: %v", got)
	}
}

func TestDetectConflicts_PseudoScoped(t *testing.T) {
	a := newBlock("a")
	a.EnsureClass("x")
	addRules(t, a, `.x { color: red; }`)

	b := newBlock("b")
	b.EnsureClass("y")
	addRules(t, b, `.y::before { color: red; }`)

	if got := block.DetectConflicts(a.GetClass("x"), b.GetClass("y")); len(got) != 0 {
		t.Errorf("expected no conflicts, got %v", got)
	}
}

func TestRulesets(t *testing.T) {
	b := newBlock("b")
	x := b.EnsureClass("x")
	addRules(t, b, `.x, .x:hover { margin: 0; } .x::after { content: "a"; }`)

	rc := x.Rulesets()
	if len(rc.Rulesets()) != 2 {
		t.Fatalf("expected 2 rulesets, got %d", len(rc.Rulesets()))
	}
	if got := rc.Rulesets()[0].Selectors; len(got) != 2 {
		t.Errorf("expected selector list grouped into one ruleset, got %d selectors", len(got))
	}
	if got := rc.GetRulesets("margin-top", "::self"); len(got) != 1 {
		t.Errorf("expected ruleset for margin-top, got %d", len(got))
	}
	if got := rc.GetRulesets("margin", "::after"); len(got) != 0 {
		t.Errorf("unexpected rulesets under ::after: %d", len(got))
	}
	if got := rc.Pseudos(); len(got) != 2 || got[1] != "::after" {
		t.Errorf("Pseudos() = %v", got)
	}
}

func TestRewriteSelector(t *testing.T) {
	b := newBlock("card")
	title := b.EnsureClass("title")
	title.EnsureAttribute("state", "size").EnsureValue("big")
	b.RootClass().EnsureAttribute("state", "open").EnsureValue("")

	other := newBlock("other")
	other.RootClass().EnsureAttribute("state", "dark").EnsureValue("")
	b.AddBlockReference("o", other)

	tests := []struct {
		in, want string
	}{
		{":scope", ".card"},
		{".title", ".card__title"},
		{".title[state|size=big]", ".card__title--size-big"},
		{":scope[state|open] .title", ".card--open .card__title"},
		{"[o|dark] .title:hover", ".other--dark .card__title:hover"},
		{".title::before", ".card__title::before"},
		{"div > .title", "div > .card__title"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			list, err := b.ParseSelectors(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := b.RewriteSelectorToString(list, common.OutputModeBem, nil, ", ")
			if got != tt.want {
				t.Errorf("rewrite(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompiledClassesMap(t *testing.T) {
	b := newBlock("card")
	b.EnsureClass("title")
	got := b.CompiledClassesMap(common.OutputModeBem, nil)
	if got[":scope"] != "card" || got[".title"] != "card__title" {
		t.Errorf("CompiledClassesMap() = %v", got)
	}
}

func TestDebug(t *testing.T) {
	b := newBlock("card")
	b.RootClass().EnsureAttribute("state", "open").EnsureValue("")
	b.EnsureClass("item10")
	b.EnsureClass("item2").EnsureAttribute("state", "size").EnsureValue("big")

	want := `Source: "card.block.css"
:scope (.card)
├── states:
│   └── :scope[state|open] (.card--open)
├── .item2 (.card__item2)
│   └── states:
│       └── .item2[state|size=big] (.card__item2--size-big)
└── .item10 (.card__item10)
`
	if got := b.Debug(common.OutputModeBem); got != want {
		t.Errorf("Debug():\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerateGUID(t *testing.T) {
	a := block.GenerateGUID("a.css", 5)
	if len(a) != 5 {
		t.Errorf("expected 5 characters, got %q", a)
	}
	if a != block.GenerateGUID("a.css", 5) {
		t.Error("guid is not stable")
	}
	if long := block.GenerateGUID("a.css", 8); !strings.HasPrefix(long, a) {
		t.Errorf("longer guid %q does not extend %q", long, a)
	}
}
