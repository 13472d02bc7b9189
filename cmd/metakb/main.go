// Command metakb is the operator-facing entry point for the transformer:
// it wraps the transform stage (core scope) plus the graph-load and
// normalizer operational subcommands (supplemental, wired against the
// internal/loader and internal/normalizer packages). Grounded on the
// teacher's cmd/server/main.go signal-handling idiom, simplified for a
// one-shot CLI rather than a long-lived server.
package main

import (
	"fmt"
	"os"

	"github.com/metakb-transform/cmd/metakb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
