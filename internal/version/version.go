package version

// Set via -ldflags at build time.
var (
	AppName   = "Caffonia"
	Version   = "dev"
	BuildDate = "unknown"
)
