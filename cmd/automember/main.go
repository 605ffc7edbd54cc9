// Package main provides the automember command line tool: it loads a
// directory into an entry store, stacks the automember overlay on it and
// answers searches with synthesized member and memberOf values.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns an exit code.
// This is separated from main() to facilitate testing.
func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}
