// Package parser builds blocks from parsed stylesheets.
//
// Parsing runs a fixed sequence of passes over the stylesheet: imports and
// exports, block name, global states, inheritance and interfaces, then
// construction of classes, attributes and rulesets with selector validation,
// compositions and aliases. Problems with individual rules are accumulated on
// the block, problems with block wiring abort parsing.
package parser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/blockerr"
	"cssblocks/css"
)

// Importer resolves path used in "@block ... from" relative to the block
// being parsed and returns fully built block.
type Importer interface {
	ImportBlock(ctx context.Context, from *block.Block, path string, loc *blockerr.Location) (*block.Block, error)
}

// Parser turns stylesheets into blocks.
type Parser struct {
	log *zap.Logger
}

// New creates a new block parser.
func New(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("block-parser")}
}

// Parse builds block named name from sheet. Identifier is the unique key of
// the block, usually its file path. Imported blocks are requested from
// importer, which may be nil for blocks without imports. Returned block may
// carry accumulated errors, check them with AssertValid.
func (p *Parser) Parse(ctx context.Context, sheet *css.Stylesheet, identifier, name string, importer Importer) (*block.Block, error) {
	if sheet.Source == "" {
		return nil, blockerr.MissingSourcePath()
	}

	b := block.New(identifier, name)
	b.SetStylesheet(sheet)
	b.AddDependency(sheet.Source)

	ps := &parseState{
		ctx:      ctx,
		log:      p.log.With(zap.String("block", identifier)),
		b:        b,
		sheet:    sheet,
		importer: importer,
	}

	passes := []struct {
		name string
		run  func() error
	}{
		{"imports", ps.importBlocks},
		{"exports", ps.exportBlocks},
		{"block name", ps.blockName},
		{"global states", ps.globalStates},
		{"extends", ps.extends},
		{"implements", ps.implements},
		{"construct", ps.construct},
		{"composes", ps.composes},
		{"aliases", ps.aliases},
	}
	for _, pass := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := pass.run(); err != nil {
			return nil, fmt.Errorf("%s: %w", pass.name, err)
		}
		ps.log.Debug("Block pass done", zap.String("pass", pass.name), zap.Int("errors", len(b.Errors())))
	}
	return b, nil
}

type parseState struct {
	ctx      context.Context
	log      *zap.Logger
	b        *block.Block
	sheet    *css.Stylesheet
	importer Importer
}

func locOf(n css.Node) *blockerr.Location {
	loc := n.Loc()
	return &loc
}
