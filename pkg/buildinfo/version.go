// Package buildinfo carries version information stamped in at build time.
//
//	go build -ldflags "-X github.com/K1ngNothing/dungeon-generation/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/K1ngNothing/dungeon-generation/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/K1ngNothing/dungeon-generation/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/dungeongen
package buildinfo

import "fmt"

// Name is the binary name shown in version output and the user agent.
const Name = "dungeongen"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s", Name, Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
