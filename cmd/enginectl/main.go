// Command enginectl is the host process that wires package protocol's
// Host Protocol Adapter to a real board (package chess) and evaluator,
// and exposes serve/selfplay/bench subcommands around it.
//
// Grounded on AleutianLocal/cmd/aleutian's cobra command tree (package-
// level var blocks of *cobra.Command, flags as package vars,
// PersistentPreRun, AddCommand wiring) and the teacher's own main.go,
// generalized from a fixed hardcoded experiment runner into a flag-driven
// CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
