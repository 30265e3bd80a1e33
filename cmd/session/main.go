package main

import (
	"fmt"
	"os"
)

// Session process entrypoint.
// Data flow:
// 1) Load config (.env, then environment).
// 2) Build session wiring (store, bus, relay, forwarder).
// 3) Run the phase loop and feed gestures from stdin.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
