package factory

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"cssblocks/block"
)

// Importer locates block sources and reads them.
type Importer interface {
	// Identifier returns unique identifier of the block imported as p from
	// block identified by from. From is empty for entry blocks.
	Identifier(from, p string) (string, error)
	// DefaultName returns block name used when source does not set one.
	DefaultName(identifier string) string
	// Import reads block source.
	Import(ctx context.Context, identifier string) ([]byte, error)
	// DebugIdentifier returns short human readable form of identifier.
	DebugIdentifier(identifier string) string
}

// DefaultName makes block name out of file name: extensions are dropped and
// the rest is turned into a legal identifier.
func DefaultName(fileName string) string {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	name = strings.TrimSuffix(name, ".block")
	name = slug.Make(name)
	if !block.IsValidName(name) {
		name = "block-" + name
	}
	return name
}

// FSImporter reads blocks from the filesystem, identifiers are absolute
// paths.
type FSImporter struct {
	// Root is used to shorten identifiers for debugging, may be empty.
	Root string
}

func (fi *FSImporter) Identifier(from, p string) (string, error) {
	if from != "" && !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(from), p)
	}
	id, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("unable to resolve block path %q: %w", p, err)
	}
	return id, nil
}

func (fi *FSImporter) DefaultName(identifier string) string {
	return DefaultName(filepath.Base(identifier))
}

func (fi *FSImporter) Import(ctx context.Context, identifier string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(identifier)
}

func (fi *FSImporter) DebugIdentifier(identifier string) string {
	if fi.Root == "" {
		return identifier
	}
	if rel, err := filepath.Rel(fi.Root, identifier); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return identifier
}

// MemImporter serves blocks from memory, keys are slash separated paths.
type MemImporter map[string]string

func (mi MemImporter) Identifier(from, p string) (string, error) {
	if from != "" && !path.IsAbs(p) {
		p = path.Join(path.Dir(from), p)
	}
	return path.Clean(p), nil
}

func (mi MemImporter) DefaultName(identifier string) string {
	return DefaultName(path.Base(identifier))
}

func (mi MemImporter) Import(ctx context.Context, identifier string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, ok := mi[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", os.ErrNotExist, identifier)
	}
	return []byte(text), nil
}

func (mi MemImporter) DebugIdentifier(identifier string) string {
	return identifier
}
