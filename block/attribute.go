package block

import (
	"cssblocks/common"
)

// Attribute groups values of a single "[namespace|name]" attribute of a class.
type Attribute struct {
	children[*AttrValue]
	lazyBase[*Attribute]

	namespace string
	name      string
	class     *BlockClass
}

func newAttribute(namespace, name string, class *BlockClass) *Attribute {
	return &Attribute{namespace: namespace, name: name, class: class}
}

func (a *Attribute) Name() string {
	return a.name
}

func (a *Attribute) Namespace() string {
	return a.namespace
}

func (a *Attribute) Class() *BlockClass {
	return a.class
}

func (a *Attribute) Block() *Block {
	return a.class.block
}

// Base returns the same attribute of the inherited class.
func (a *Attribute) Base() *Attribute {
	return a.memo(func() *Attribute {
		if base := a.class.Base(); base != nil {
			return base.ResolveAttribute(a.namespace, a.name)
		}
		return nil
	})
}

// ResolveInheritance returns inherited attributes, furthest ancestor first.
func (a *Attribute) ResolveInheritance() []*Attribute {
	return inheritanceOf(a)
}

// AsSource returns "[ns|name]" prefixed by owning class source.
func (a *Attribute) AsSource() string {
	return a.class.AsSource() + "[" + attributeKey(a.namespace, a.name) + "]"
}

// GetValue returns local value, "" is the presence only value.
func (a *Attribute) GetValue(value string) *AttrValue {
	return a.getChild(value)
}

// EnsureValue returns value creating it when missing.
func (a *Attribute) EnsureValue(value string) *AttrValue {
	return a.ensureChild(value, func() *AttrValue {
		return newAttrValue(value, a)
	})
}

// ResolveValue finds value on this attribute or its ancestors.
func (a *Attribute) ResolveValue(value string) *AttrValue {
	return resolveIn(a, func(attr *Attribute) *AttrValue {
		return attr.GetValue(value)
	})
}

// Values returns local values in declaration order.
func (a *Attribute) Values() []*AttrValue {
	return a.all()
}

// HasPresence reports whether the presence only value is declared.
func (a *Attribute) HasPresence() bool {
	return a.GetValue("") != nil
}

// HasEnumValues reports whether any non presence value is declared.
func (a *Attribute) HasEnumValues() bool {
	for _, v := range a.all() {
		if !v.IsPresence() {
			return true
		}
	}
	return false
}

// AttrValue is a single value of an attribute. Empty value means the
// attribute is only tested for presence.
type AttrValue struct {
	styleCommon
	lazyBase[*AttrValue]

	value     string
	attribute *Attribute
	global    bool
}

func newAttrValue(value string, attr *Attribute) *AttrValue {
	v := &AttrValue{value: value, attribute: attr}
	v.rulesets = newRulesetContainer(v)
	return v
}

func (*AttrValue) isStyle() {}

// Name returns attribute value, "" for presence only value.
func (v *AttrValue) Name() string {
	return v.value
}

func (v *AttrValue) Value() string {
	return v.value
}

func (v *AttrValue) IsPresence() bool {
	return v.value == ""
}

func (v *AttrValue) Attribute() *Attribute {
	return v.attribute
}

func (v *AttrValue) Class() *BlockClass {
	return v.attribute.class
}

func (v *AttrValue) Block() *Block {
	return v.attribute.class.block
}

// IsGlobal reports whether the value may be used by other blocks selectors.
func (v *AttrValue) IsGlobal() bool {
	return v.global
}

func (v *AttrValue) SetGlobal(global bool) {
	v.global = global
}

// Base returns the same value of the inherited attribute.
func (v *AttrValue) Base() *AttrValue {
	return v.memo(func() *AttrValue {
		if base := v.attribute.Base(); base != nil {
			return base.ResolveValue(v.value)
		}
		return nil
	})
}

func (v *AttrValue) BaseStyle() Style {
	if b := v.Base(); b != nil {
		return b
	}
	return nil
}

// ResolveInheritance returns inherited values, furthest ancestor first.
func (v *AttrValue) ResolveInheritance() []*AttrValue {
	return inheritanceOf(v)
}

func (v *AttrValue) ResolveStyles() []Style {
	return resolveStyles(v, &v.styles)
}

func (v *AttrValue) AsSource() string {
	a := v.attribute
	src := a.class.AsSource() + "[" + attributeKey(a.namespace, a.name)
	if !v.IsPresence() {
		src += "=" + v.value
	}
	return src + "]"
}

func (v *AttrValue) CSSClass(mode common.OutputMode, reserved map[string]bool) string {
	name := v.Class().CSSClass(mode, reserved) + "--" + v.attribute.name
	if !v.IsPresence() {
		name += "-" + v.value
	}
	return name
}

func (v *AttrValue) CSSClasses(mode common.OutputMode, reserved map[string]bool) []string {
	return withAliases(v.CSSClass(mode, reserved), v.aliases)
}
