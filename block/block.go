// Package block models a parsed block: its classes, attributes and their
// values, references to other blocks and every ruleset that targets them.
//
// Blocks are built by the parser and wired together by the factory. After
// that they are treated as read only apart from memoized lookups.
package block

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"cssblocks/blockerr"
	"cssblocks/css"
	"cssblocks/selector"
)

var reBlockName = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// IsValidName reports whether name can be used as block name.
func IsValidName(name string) bool {
	return reBlockName.MatchString(name)
}

// Block is a single parsed block file.
type Block struct {
	children[*BlockClass]

	identifier string
	name       string
	nameSet    bool
	guid       string
	stylesheet *css.Stylesheet
	rootClass  *BlockClass

	references   map[string]*Block
	referenceIDs map[*Block]string
	exports      map[string]*Block

	base       *Block
	baseName   string
	implements []*Block

	errs         []error
	dependencies []string
	selectors    map[string][]*selector.Complex
}

// New creates block with identifier (usually file path) and default name.
func New(identifier, name string) *Block {
	b := &Block{
		identifier:   identifier,
		name:         name,
		references:   make(map[string]*Block),
		referenceIDs: make(map[*Block]string),
		exports:      make(map[string]*Block),
		selectors:    make(map[string][]*selector.Complex),
	}
	b.rootClass = b.EnsureClass(RootClass)
	return b
}

func (b *Block) Identifier() string {
	return b.identifier
}

func (b *Block) Name() string {
	return b.name
}

// SetName sets explicit block name. Name may be set only once.
func (b *Block) SetName(name string) error {
	if b.nameSet {
		return blockerr.New(nil, "Cannot set block name more than once.")
	}
	b.name, b.nameSet = name, true
	return nil
}

// HasExplicitName reports whether SetName was called.
func (b *Block) HasExplicitName() bool {
	return b.nameSet
}

func (b *Block) GUID() string {
	return b.guid
}

func (b *Block) SetGUID(guid string) {
	b.guid = guid
}

// GenerateGUID derives short stable id from identifier, longer length is used
// to get around collisions.
func GenerateGUID(identifier string, length int) string {
	id := strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceURL, []byte(identifier)).String(), "-", "")
	return id[:min(max(length, 1), len(id))]
}

func (b *Block) Stylesheet() *css.Stylesheet {
	return b.stylesheet
}

func (b *Block) SetStylesheet(s *css.Stylesheet) {
	b.stylesheet = s
}

func (b *Block) RootClass() *BlockClass {
	return b.rootClass
}

// Base returns the block this one extends.
func (b *Block) Base() *Block {
	return b.base
}

// BaseName returns local name the base block was referenced by.
func (b *Block) BaseName() string {
	return b.baseName
}

func (b *Block) SetBase(name string, base *Block) {
	b.base, b.baseName = base, name
}

// ResolveInheritance returns base blocks, furthest ancestor first.
func (b *Block) ResolveInheritance() []*Block {
	return inheritanceOf(b)
}

// IsAncestorOf reports whether b is in the base chain of other.
func (b *Block) IsAncestorOf(other *Block) bool {
	for _, a := range other.ResolveInheritance() {
		if a == b {
			return true
		}
	}
	return false
}

// GetClass returns locally declared class. Use RootClass name for ":scope".
func (b *Block) GetClass(name string) *BlockClass {
	return b.getChild(name)
}

// EnsureClass returns local class creating it when missing.
func (b *Block) EnsureClass(name string) *BlockClass {
	return b.ensureChild(name, func() *BlockClass {
		return newBlockClass(name, b)
	})
}

// ResolveClass finds class in this block or its base chain.
func (b *Block) ResolveClass(name string) *BlockClass {
	return resolveIn(b, func(blk *Block) *BlockClass {
		return blk.GetClass(name)
	})
}

// Classes returns local classes, root first.
func (b *Block) Classes() []*BlockClass {
	return b.all()
}

// AddImplements records interface block.
func (b *Block) AddImplements(other *Block) {
	b.implements = append(b.implements, other)
}

func (b *Block) Implements() []*Block {
	return b.implements
}

// AddBlockReference makes other available under alias.
func (b *Block) AddBlockReference(alias string, other *Block) {
	b.references[alias] = other
	if _, ok := b.referenceIDs[other]; !ok {
		b.referenceIDs[other] = alias
	}
}

// GetReferencedBlock returns block imported under alias.
func (b *Block) GetReferencedBlock(alias string) *Block {
	return b.references[alias]
}

// GetReferencedBlockLocalName returns alias other block was imported as.
func (b *Block) GetReferencedBlockLocalName(other *Block) (string, bool) {
	alias, ok := b.referenceIDs[other]
	return alias, ok
}

// ReferencedBlocks returns imported blocks keyed by alias.
func (b *Block) ReferencedBlocks() map[string]*Block {
	return b.references
}

// AddBlockExport exposes other under alias to blocks importing this one.
func (b *Block) AddBlockExport(alias string, other *Block) {
	b.exports[alias] = other
}

// GetExportedBlock returns block exported under alias.
func (b *Block) GetExportedBlock(alias string) *Block {
	return b.exports[alias]
}

// AddDependency records file which affects the compiled output.
func (b *Block) AddDependency(path string) {
	for _, d := range b.dependencies {
		if d == path {
			return
		}
	}
	b.dependencies = append(b.dependencies, path)
}

func (b *Block) Dependencies() []string {
	return b.dependencies
}

// TransitiveBlockDependencies returns every block reachable through
// references, base and interfaces. Block itself is not included.
func (b *Block) TransitiveBlockDependencies() []*Block {
	var (
		out  []*Block
		seen = map[*Block]bool{b: true}
	)
	var visit func(blk *Block)
	visit = func(blk *Block) {
		direct := make([]*Block, 0, len(blk.references)+len(blk.implements)+1)
		for _, alias := range sortedKeys(blk.references) {
			direct = append(direct, blk.references[alias])
		}
		if blk.base != nil {
			direct = append(direct, blk.base)
		}
		direct = append(direct, blk.implements...)
		for _, d := range direct {
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
			visit(d)
		}
	}
	visit(b)
	return out
}

// AddError accumulates error found while parsing the block.
func (b *Block) AddError(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

func (b *Block) Errors() []error {
	return b.errs
}

// AssertValid returns nil, the single accumulated error or cascading error
// with all of them.
func (b *Block) AssertValid() error {
	return blockerr.Cascade(b.errs...)
}

// All returns every style of the block: classes and their attribute values.
// Unless shallow, styles of base blocks follow.
func (b *Block) All(shallow bool) []Style {
	var out []Style
	for _, c := range b.Classes() {
		out = append(out, c)
		for _, v := range c.AttributeValues() {
			out = append(out, v)
		}
	}
	if !shallow && b.base != nil {
		out = append(out, b.base.All(false)...)
	}
	return out
}

// Find returns style by its source name. Names starting with a reference
// alias are looked up in the referenced block.
func (b *Block) Find(sourceName string) Style {
	if i := strings.IndexAny(sourceName, ".[:"); i > 0 {
		if ref := b.GetReferencedBlock(sourceName[:i]); ref != nil {
			return ref.Find(sourceName[i:])
		}
	}
	for _, s := range b.All(false) {
		if s.AsSource() == sourceName {
			return s
		}
	}
	return nil
}

// CheckImplementations verifies every style of implemented blocks has a
// counterpart in this block.
func (b *Block) CheckImplementations() error {
	var errs []error
	for _, impl := range b.implements {
		var missing []string
		for _, s := range impl.All(false) {
			if b.Find(s.AsSource()) == nil {
				missing = append(missing, s.AsSource())
			}
		}
		if len(missing) > 0 {
			errs = append(errs, blockerr.New(nil, "Missing implementation(s) for: %s from %s",
				strings.Join(missing, ", "), impl.identifier))
		}
	}
	return blockerr.Cascade(errs...)
}

// ParseSelectors parses selector list of the rule, results are cached by
// selector text and must not be modified.
func (b *Block) ParseSelectors(text string) ([]*selector.Complex, error) {
	if list, ok := b.selectors[text]; ok {
		return list, nil
	}
	list, err := selector.Parse(text)
	if err != nil {
		return nil, err
	}
	b.selectors[text] = list
	return list, nil
}
