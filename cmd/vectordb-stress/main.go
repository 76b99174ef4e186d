// Command vectordb-stress runs load profiles against the simulated vector
// database and prints a run report.
package main

import (
	"fmt"
	"os"

	"github.com/calque-ai/calque-stress/cmd/vectordb-stress/commands"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
