package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/goliatone/go-diecut/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/goliatone/go-diecut/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/goliatone/go-diecut/internal/version.Date={{.Date}}
)
