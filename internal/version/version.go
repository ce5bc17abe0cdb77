// Package version holds build information, set with -ldflags at release time.
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return Version + " (" + Commit + ", built " + BuildDate + ")"
}
