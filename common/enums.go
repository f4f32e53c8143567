// The only reason this package exists is because output mode is needed both
// by the block tree (class name generation) and by the configuration, and I do
// not want the core packages to depend on configuration loading at all. So
// shared enums live here.
package common

// OutputMode selects compiled class name format.
// ENUM(bem, bem-unique)
type OutputMode int

// Unique reports whether every class name must carry the block GUID.
func (m OutputMode) Unique() bool {
	return m == OutputModeBemUnique
}
