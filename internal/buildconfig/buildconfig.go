// Package buildconfig exposes version information injected at link time:
//
//	go build -ldflags "-X github.com/Harshitk-cp/bdicore/internal/buildconfig.version=v0.3.0"
package buildconfig

import (
	"fmt"
	"runtime"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func Version() string { return version }

func Commit() string { return commit }

// VersionInfo is served by the health endpoint.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
		"built":   date,
		"go":      runtime.Version(),
	}
}

// String is the one-line form printed by bdictl version.
func String() string {
	return fmt.Sprintf("bdicore %s (commit %s, built %s, %s)", version, commit, date, runtime.Version())
}
