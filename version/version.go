package version

// Version is overridden at build time via -ldflags "-X github.com/Daskott/sos/version.Version=..."
var Version = "0.1.0"
