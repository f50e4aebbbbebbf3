// Package misc keeps build time information.
package misc

// Set by the linker: -ldflags "-X mdsync/misc.version=... -X mdsync/misc.githash=..."
var (
	appName = "mdsync"
	version = "dev"
	githash = "unknown"
)

// GetAppName returns the program name used for logs and temporary files.
func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return githash
}
