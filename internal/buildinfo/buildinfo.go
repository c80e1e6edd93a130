// Package buildinfo exposes the version stamped at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/erpsync/internal/buildinfo.Version=1.4.0"
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

var (
	Version = "0.0.0-dev"
	Commit  = ""
)

// Current returns Version, falling back to the module version recorded by
// the Go toolchain when nothing was stamped.
func Current() string {
	if Version != "0.0.0-dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// PrintBuildData writes the version banner printed at startup.
func PrintBuildData(w io.Writer) {
	commit := Commit
	if commit == "" {
		commit = "N/A"
	}
	fmt.Fprintf(w, "Build version: %s\nBuild commit: %s\n", Current(), commit)
}
