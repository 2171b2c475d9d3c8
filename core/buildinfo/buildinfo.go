// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X github.com/m3rciful/kinobot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/kinobot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/kinobot/core/buildinfo.Date=$(date -u +%FT%TZ)"
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	// Date is RFC 3339; empty for local builds.
	Date = ""
)
