// Package cache keeps compiled CSS in SQLite database so unchanged blocks are
// not recompiled.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"cssblocks/block"
	"cssblocks/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS compiled (
	key        TEXT PRIMARY KEY,
	identifier TEXT NOT NULL,
	css        TEXT NOT NULL,
	created    INTEGER NOT NULL
);
`

// Cache is a compile cache backed by single SQLite connection. It is not safe
// for concurrent use.
type Cache struct {
	log  *zap.Logger
	conn *sqlite.Conn
	path string
}

// Open opens (creating when necessary) cache database at path. Empty path
// opens in-memory database.
func Open(path string, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	name := path
	if name == "" {
		name = ":memory:"
		flags = append(flags, sqlite.OpenMemory)
	}
	conn, err := sqlite.OpenConn(name, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache database %q: %w", name, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to initialize cache database %q: %w", name, err)
	}
	c := &Cache{log: log.Named("compile-cache"), conn: conn, path: name}
	c.log.Debug("Cache opened", zap.String("path", name))
	return c, nil
}

// Key computes cache key for compiling b. Sources of the block and all blocks
// it depends on participate, so changing any of them invalidates the entry.
func Key(b *block.Block, mode common.OutputMode, reserved map[string]bool) string {
	h := sha256.New()
	fmt.Fprintf(h, "mode:%s\n", mode)

	names := make([]string, 0, len(reserved))
	for name, ok := range reserved {
		if ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(h, "reserved:%s\n", name)
	}

	for _, dep := range append([]*block.Block{b}, b.TransitiveBlockDependencies()...) {
		fmt.Fprintf(h, "block:%s\n", dep.Identifier())
		if s := dep.Stylesheet(); s != nil {
			h.Write([]byte(s.String()))
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns cached CSS for key.
func (c *Cache) Get(key string) (string, bool, error) {
	var (
		out   string
		found bool
	)
	err := sqlitex.Execute(c.conn, `SELECT css FROM compiled WHERE key = ?`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out, found = stmt.ColumnText(0), true
				return nil
			},
		})
	if err != nil {
		return "", false, fmt.Errorf("unable to read cache entry: %w", err)
	}
	c.log.Debug("Cache lookup", zap.String("key", key), zap.Bool("hit", found))
	return out, found, nil
}

// Put stores compiled CSS of the block with identifier under key replacing
// previous entry.
func (c *Cache) Put(key, identifier, css string) error {
	err := sqlitex.Execute(c.conn,
		`INSERT OR REPLACE INTO compiled (key, identifier, css, created) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{key, identifier, css, time.Now().Unix()}})
	if err != nil {
		return fmt.Errorf("unable to store cache entry for %q: %w", identifier, err)
	}
	c.log.Debug("Cache stored", zap.String("key", key), zap.String("identifier", identifier))
	return nil
}

// Forget removes all entries of the block with identifier.
func (c *Cache) Forget(identifier string) (int, error) {
	err := sqlitex.Execute(c.conn, `DELETE FROM compiled WHERE identifier = ?`,
		&sqlitex.ExecOptions{Args: []any{identifier}})
	if err != nil {
		return 0, fmt.Errorf("unable to remove cache entries for %q: %w", identifier, err)
	}
	return c.conn.Changes(), nil
}

// Close closes cache database.
func (c *Cache) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("unable to close cache database %q: %w", c.path, err)
	}
	return nil
}
