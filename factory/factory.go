// Package factory loads blocks and everything they reference.
//
// Factory keeps every block it has built in an arena keyed by identifier, so
// a block imported from several places is parsed once and blocks reference
// each other through the arena. Blocks are returned only after all their
// references are wired and the block passed validation.
package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/css"
	"cssblocks/parser"
)

// guidLength is the initial length of block GUID, extended on collision.
const guidLength = 5

// Factory builds blocks. It is not safe for concurrent use.
type Factory struct {
	log      *zap.Logger
	importer Importer
	css      *css.Parser
	parser   *parser.Parser

	blocks  map[string]*block.Block
	guids   map[string]string // guid -> identifier
	loading []string          // identifiers being parsed, outermost first
}

// New creates factory reading blocks through importer.
func New(importer Importer, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{
		log:      log.Named("block-factory"),
		importer: importer,
		css:      css.NewParser(log),
		parser:   parser.New(log),
		blocks:   make(map[string]*block.Block),
		guids:    make(map[string]string),
	}
}

// Importer returns importer the factory uses.
func (f *Factory) Importer() Importer {
	return f.importer
}

// GetBlockFromPath returns block for entry path p.
func (f *Factory) GetBlockFromPath(ctx context.Context, p string) (*block.Block, error) {
	id, err := f.importer.Identifier("", p)
	if err != nil {
		return nil, err
	}
	return f.GetBlock(ctx, id)
}

// GetBlock returns block by identifier, parsing it and its references when
// needed.
func (f *Factory) GetBlock(ctx context.Context, identifier string) (*block.Block, error) {
	return f.getBlock(ctx, identifier, nil)
}

// ImportBlock implements parser.Importer.
func (f *Factory) ImportBlock(ctx context.Context, from *block.Block, p string, loc *blockerr.Location) (*block.Block, error) {
	id, err := f.importer.Identifier(from.Identifier(), p)
	if err != nil {
		return nil, blockerr.Syntax(loc, "%v", err)
	}
	return f.getBlock(ctx, id, loc)
}

func (f *Factory) getBlock(ctx context.Context, identifier string, loc *blockerr.Location) (*block.Block, error) {
	if b, ok := f.blocks[identifier]; ok {
		return b, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, id := range f.loading {
		if id == identifier {
			chain := make([]string, 0, len(f.loading)-i+1)
			for _, c := range f.loading[i:] {
				chain = append(chain, f.importer.DebugIdentifier(c))
			}
			chain = append(chain, f.importer.DebugIdentifier(identifier))
			return nil, blockerr.Syntax(loc, "Detected circular dependency: %s", strings.Join(chain, " -> "))
		}
	}
	f.loading = append(f.loading, identifier)
	defer func() { f.loading = f.loading[:len(f.loading)-1] }()

	debugID := f.importer.DebugIdentifier(identifier)
	log := f.log.With(zap.String("block", debugID))

	data, err := f.importer.Import(ctx, identifier)
	if err != nil {
		if loc != nil {
			return nil, blockerr.Syntax(loc, "Unable to import block %q: %v", debugID, err)
		}
		return nil, fmt.Errorf("unable to read block %q: %w", debugID, err)
	}
	sheet, err := f.css.Parse(data, identifier)
	if err != nil {
		return nil, err
	}
	b, err := f.parser.Parse(ctx, sheet, identifier, f.importer.DefaultName(identifier), f)
	if err != nil {
		return nil, fmt.Errorf("unable to parse block %q: %w", debugID, err)
	}
	b.SetGUID(f.allocateGUID(identifier))

	b.AddError(b.CheckImplementations())
	if err := b.AssertValid(); err != nil {
		return nil, err
	}

	f.blocks[identifier] = b
	log.Debug("Block loaded", zap.String("name", b.Name()), zap.String("guid", b.GUID()),
		zap.Int("references", len(b.ReferencedBlocks())))
	return b, nil
}

func (f *Factory) allocateGUID(identifier string) string {
	for n := guidLength; ; n++ {
		guid := block.GenerateGUID(identifier, n)
		if owner, ok := f.guids[guid]; !ok || owner == identifier {
			f.guids[guid] = identifier
			return guid
		}
		if n > 32 {
			// full uuid collision, should never happen
			guid = fmt.Sprintf("%s%d", guid, len(f.guids))
			f.guids[guid] = identifier
			return guid
		}
	}
}

// Blocks returns every loaded block ordered by identifier.
func (f *Factory) Blocks() []*block.Block {
	ids := make([]string, 0, len(f.blocks))
	for id := range f.blocks {
		ids = append(ids, id)
	}
	sort.Sort(natural.StringSlice(ids))
	out := make([]*block.Block, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.blocks[id])
	}
	return out
}

// Reset forgets every loaded block.
func (f *Factory) Reset() {
	clear(f.blocks)
	clear(f.guids)
}
