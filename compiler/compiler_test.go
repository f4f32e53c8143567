package compiler_test

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/common"
	"cssblocks/compiler"
	"cssblocks/factory"
)

var fixtures = factory.MemImporter{
	"card.css": `.title { color: red; }`,
	"special-card.css": `
@block card from "card.css";
:scope { extends: card; }
.title { color: blue; }
`,
	"other.css": `
@block-global [state|dark];
:scope[state|dark] { color: black; }
.x { color: green; }
.y { background: blue; }
.z + .z { color: green; }
`,
	"same.css":  `.x { color: red; }`,
	"media.css": `@media (min-width: 10px) { .x { color: green; } }`,
}

func load(t *testing.T, text string) *block.Block {
	t.Helper()
	imp := factory.MemImporter{"test.css": text}
	for k, v := range fixtures {
		imp[k] = v
	}
	b, err := factory.New(imp, zap.NewNop()).GetBlockFromPath(context.Background(), "test.css")
	if err != nil {
		t.Fatalf("unable to load block: %v", err)
	}
	return b
}

func compile(t *testing.T, b *block.Block, reserved map[string]bool) (string, error) {
	t.Helper()
	out, err := compiler.New(common.OutputModeBem, zap.NewNop()).Compile(b, nil, reserved)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func TestCompile_InheritedConflict(t *testing.T) {
	f := factory.New(fixtures, zap.NewNop())
	b, err := f.GetBlockFromPath(context.Background(), "special-card.css")
	if err != nil {
		t.Fatal(err)
	}
	got, err := compile(t, b, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	want := `.special-card__title {
  color: blue;
}

.card__title.special-card__title {
  color: blue;
}
`
	if got != want {
		t.Errorf("Compile() =\n%s\nwant\n%s", got, want)
	}
	if strings.Contains(b.Stylesheet().String(), "resolve-inherited") {
		t.Error("block stylesheet was modified")
	}
}

func TestCompile_Resolutions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "override",
			text: `@block other from "other.css"; .a { color: red; color: resolve("other.x"); }`,
			want: ".test__a {\n  color: red;\n}\n\n.other__x.test__a {\n  color: green;\n}\n",
		},
		{
			name: "yield",
			text: `@block other from "other.css"; .a { color: resolve("other.x"); color: red; }`,
			want: ".test__a {\n  color: red;\n}\n\n.other__x.test__a {\n  color: red;\n}\n",
		},
		{
			name: "same values",
			text: `@block same from "same.css"; .a { color: red; color: resolve("same.x"); }`,
			want: ".test__a {\n  color: red;\n}\n",
		},
		{
			name: "state",
			text: `@block other from "other.css"; .a[state|on] { color: resolve("other.x"); color: red; }`,
			want: ".test__a--on {\n  color: red;\n}\n\n.other__x.test__a--on {\n  color: red;\n}\n",
		},
		{
			name: "adjacent combinators",
			text: `@block other from "other.css"; .a + .a { color: resolve("other.z"); color: red; }`,
			want: ".test__a + .test__a {\n  color: red;\n}\n\n.other__z.test__a + .other__z.test__a {\n  color: red;\n}\n",
		},
		{
			name: "override between local values",
			text: `@block other from "other.css"; .a { color: red; color: resolve("other.x"); color: blue; }`,
			want: ".test__a {\n  color: red;\n  color: blue;\n}\n\n.other__x.test__a {\n  color: green;\n}\n",
		},
		{
			name: "override of inherited property",
			text: `@block card from "card.css"; @block other from "other.css"; :scope { extends: card; } .title { color: blue; color: resolve("other.x"); }`,
			want: ".test__title {\n  color: blue;\n}\n\n.card__title.test__title {\n  color: blue;\n}\n\n.other__x.test__title {\n  color: green;\n}\n",
		},
		{
			name: "media scoped target",
			text: `@block media from "media.css"; .a { color: red; color: resolve("media.x"); }`,
			want: ".test__a {\n  color: red;\n}\n\n@media (min-width: 10px) {\n  .media__x.test__a {\n    color: green;\n  }\n}\n",
		},
		{
			name: "media scoped target and rule",
			text: `@block media from "media.css"; @media (min-width: 10px) { .a { color: red; color: resolve("media.x"); } }`,
			want: "@media (min-width: 10px) {\n  .test__a {\n    color: red;\n  }\n  .media__x.test__a {\n    color: green;\n  }\n}\n",
		},
		{
			name: "shorthand",
			text: `@block other from "other.css"; .a { background-color: white; background-color: resolve("other.y"); }`,
			want: ".test__a {\n  background-color: white;\n}\n\n.other__y.test__a {\n  background: blue;\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compile(t, load(t, tt.text), nil)
			if err != nil {
				t.Fatalf("Compile() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compile() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestCompile_ResolutionErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		text string
		want string
	}{
		{
			name: "own block",
			text: `.b { color: blue; } .a { color: resolve(".b"); color: red; }`,
			want: "Cannot resolve conflicts with your own block.",
		},
		{
			name: "ancestor",
			text: `@block card from "card.css"; :scope { extends: card; } .title { color: resolve("card.title"); color: blue; }`,
			want: "Cannot resolve conflicts with ancestors of your own block.",
		},
		{
			name: "no local value",
			text: `@block other from "other.css"; .a { color: resolve("other.x"); }`,
			want: "Cannot resolve color without a concrete value.",
		},
		{
			name: "no conflict",
			text: `@block other from "other.css"; .a { color: resolve("other.y"); color: red; }`,
			want: "There are no conflicting values for color found in any selectors targeting other.y.",
		},
		{
			name: "ambiguous",
			text: `@block other from "other.css"; .a { color: resolve("other.x"); color: red; color: resolve("other.x"); }`,
			want: "both before and after",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, load(t, tt.text), nil)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !blockerr.Is(err, blockerr.KindInvalidBlockSyntax) {
				t.Errorf("expected InvalidBlockSyntax, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestCompile_Strip(t *testing.T) {
	b := load(t, `
@block other from "other.css";
@export other;
:scope { block-name: test; }
:scope[state|open] { color: red; }
.a { block-alias: my-a; composes: other.x; }
.b { block-alias: my-b; color: red; }
[other|dark] .b { color: white; }
@media (min-width: 10px) {
  .b { color: blue; }
}
@keyframes spin {
  from { color: red; }
}
`)
	got, err := compile(t, b, nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	want := `.test--open {
  color: red;
}

.test__b {
  color: red;
}

.other--dark .test__b {
  color: white;
}

@media (min-width: 10px) {
  .test__b {
    color: blue;
  }
}

@keyframes spin {
  from {
    color: red;
  }
}
`
	if got != want {
		t.Errorf("Compile() =\n%s\nwant\n%s", got, want)
	}
}

func TestCompile_Debug(t *testing.T) {
	got, err := compile(t, load(t, `@block-debug self to comment; .a { color: red; }`), nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if !strings.HasPrefix(got, "/*\n") || !strings.Contains(got, ".a (.test__a)") {
		t.Errorf("unexpected debug output:\n%s", got)
	}

	got, err = compile(t, load(t, `@block other from "other.css"; @block-debug other to stderr; .a { color: red; }`), nil)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if strings.Contains(got, "/*") || strings.Contains(got, "block-debug") {
		t.Errorf("unexpected debug output:\n%s", got)
	}

	if _, err := compile(t, load(t, `@block-debug nope to comment;`), nil); !blockerr.Is(err, blockerr.KindInvalidBlockSyntax) {
		t.Errorf("expected error for unknown block, got %v", err)
	}
}

func TestCompile_Reserved(t *testing.T) {
	b := load(t, `.a { color: red; } .b { color: blue; }`)
	got, err := compile(t, b, map[string]bool{"test__a": true})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if !strings.Contains(got, ".test_"+b.GUID()+"__a {") {
		t.Errorf("reserved class not made unique:\n%s", got)
	}
	if !strings.Contains(got, ".test__b {") {
		t.Errorf("unreserved class changed:\n%s", got)
	}
}
