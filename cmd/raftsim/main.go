// Command raftsim runs an in-process, simulated Raft cluster for manual
// experimentation and for validating cluster configuration files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
