package app

// Build information populated via -ldflags at build time.
var (
	// BuildVersion is the semantic version of the built binary.
	BuildVersion = "0.0.0-dev"
	// BuildCommit is the VCS commit SHA associated with the build.
	BuildCommit = "unknown"
)

func userAgent() string {
	return "roastmysite/" + BuildVersion + " (+https://github.com/Shaxadhere/ai-roast-my-website)"
}
