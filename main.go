// Package main is the entry point for releasectl.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/zorak1103/releasectl/cmd"
)

func main() {
	// Panic recovery for production hardening. Catches unhandled panics and logs
	// the stack trace before terminating with exit code 1.
	// Exit code semantics: 0 = success or operator abort, 1 = failure,
	// other = status of the failed delegated command.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			fmt.Fprintf(os.Stderr, "\nStack trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
