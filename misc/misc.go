// Package misc keeps build time information about the program.
package misc

// Set by the linker: -X cssblocks/misc.version=... -X cssblocks/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "blocks"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
