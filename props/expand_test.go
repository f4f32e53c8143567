package props_test

import (
	"slices"
	"testing"

	"cssblocks/props"
)

func TestExpandProp_IncludesSelf(t *testing.T) {
	tests := []struct {
		prop, value string
	}{
		{"border-top", "1px solid red"},
		{"border", "2px dashed blue"},
		{"margin", "1px 2px"},
		{"font", "italic bold 12px/1.5 Georgia, serif"},
		{"color", "red"},
		{"background", "url(a.png) no-repeat"},
		{"flex", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.prop, func(t *testing.T) {
			got := props.ExpandProp(tt.prop, tt.value)
			if v, ok := got[tt.prop]; !ok || v != tt.value {
				t.Errorf("ExpandProp(%q) missing itself, got %v", tt.prop, got)
			}
		})
	}
}

func TestExpandProp_BorderSideDoesNotLeak(t *testing.T) {
	got := props.ExpandProp("border-top", "1px solid red")

	for _, k := range []string{"border-top-width", "border-top-style", "border-top-color"} {
		if _, ok := got[k]; !ok {
			t.Errorf("expected %q in expansion", k)
		}
	}
	for _, k := range []string{
		"border", "border-width", "border-style", "border-color",
		"border-left", "border-left-width", "border-right-color", "border-bottom-style",
	} {
		if _, ok := got[k]; ok {
			t.Errorf("unexpected %q in expansion %v", k, got)
		}
	}
	if got["border-top-width"] != "1px" || got["border-top-style"] != "solid" || got["border-top-color"] != "red" {
		t.Errorf("unexpected synthesized values %v", got)
	}
}

func TestExpandProp_Box(t *testing.T) {
	tests := []struct {
		value                    string
		top, right, bottom, left string
	}{
		{"1px", "1px", "1px", "1px", "1px"},
		{"1px 2px", "1px", "2px", "1px", "2px"},
		{"1px 2px 3px", "1px", "2px", "3px", "2px"},
		{"1px 2px 3px 4px", "1px", "2px", "3px", "4px"},
		{"calc(1px + 2px) 0", "calc(1px + 2px)", "0", "calc(1px + 2px)", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := props.ExpandProp("margin", tt.value)
			want := map[string]string{
				"margin-top": tt.top, "margin-right": tt.right,
				"margin-bottom": tt.bottom, "margin-left": tt.left,
			}
			for k, v := range want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestExpandProp_Border(t *testing.T) {
	got := props.ExpandProp("border", "1px solid red")
	if len(got) != 16 {
		t.Errorf("expected 16 properties, got %d: %v", len(got), got)
	}
	if got["border-left-color"] != "red" {
		t.Errorf("border-left-color = %q, want %q", got["border-left-color"], "red")
	}
}

func TestExpandProp_Special(t *testing.T) {
	t.Run("font-family atomic", func(t *testing.T) {
		got := props.ExpandProp("font-family", `"Helvetica Neue", sans-serif`)
		if len(got) != 1 {
			t.Errorf("expected only font-family, got %v", got)
		}
	})
	t.Run("var substituted", func(t *testing.T) {
		got := props.ExpandProp("margin", "var(--gap) 1px")
		if got["margin-left"] != "inherit" {
			t.Errorf("margin-left = %q, want inherit", got["margin-left"])
		}
		if got["margin"] != "var(--gap) 1px" {
			t.Errorf("margin = %q", got["margin"])
		}
	})
	t.Run("resolution substituted", func(t *testing.T) {
		got := props.ExpandProp("border", `resolve("other.foo")`)
		if got["border-top-color"] != "inherit" {
			t.Errorf("border-top-color = %q, want inherit", got["border-top-color"])
		}
	})
	t.Run("font", func(t *testing.T) {
		got := props.ExpandProp("font", "italic 700 12px/1.5 Georgia, serif")
		want := map[string]string{
			"font-style": "italic", "font-weight": "700", "font-size": "12px",
			"line-height": "1.5", "font-family": "Georgia, serif",
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("%s = %q, want %q", k, got[k], v)
			}
		}
	})
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"border", "border-left-color", true},
		{"border-top", "border-left", false},
		{"margin", "margin-top", true},
		{"color", "background-color", false},
		{"background", "background-color", true},
		{"font", "font-family", true},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			got := props.Overlap(tt.a, "inherit", tt.b, "inherit")
			if (len(got) > 0) != tt.want {
				t.Errorf("Overlap(%q, %q) = %v, want overlap %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		value     string
		ok        bool
		path      string
		inherited bool
	}{
		{`resolve("other.foo")`, true, "other.foo", false},
		{`resolve-inherited('base.bar[state|x]')`, true, "base.bar[state|x]", true},
		{`resolve( "a" )`, true, "a", false},
		{`red`, false, "", false},
		{`resolve(a)`, false, "", false},
	}
	for _, tt := range tests {
		r, ok := props.ParseResolution(tt.value)
		if ok != tt.ok || r.Path != tt.path || r.Inherited != tt.inherited {
			t.Errorf("ParseResolution(%q) = %+v, %v", tt.value, r, ok)
		}
	}
}

func TestSplitValue(t *testing.T) {
	got := props.SplitValue(`1px  rgba(0, 0, 0, .5) "a b"`)
	want := []string{"1px", "rgba(0, 0, 0, .5)", `"a b"`}
	if !slices.Equal(got, want) {
		t.Errorf("SplitValue() = %q, want %q", got, want)
	}
}
