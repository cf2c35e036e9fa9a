// Package version reports build version information for the rulekit
// commands and the cache server's /version endpoint.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/rulekit/version.Version=1.0.0"
//
// Unset values fall back to the VCS stamps in runtime/debug build info.
package version
