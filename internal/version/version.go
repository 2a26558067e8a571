package version

// Version is the current version of the screenshare CLI.
// This value can be overridden at build time using:
//
//	go build -ldflags="-X 'github.com/saiful3278/Screenshare-fronted/internal/version.Version=v1.0.0'"
var Version = "dev"
