// Package version reports the pipekit build version.
//
// Values are set at link time and fall back to the module build info:
//
//	go build -ldflags "-X github.com/kbukum/pipekit/version.Version=1.2.0" ./cmd/pipekit
package version
