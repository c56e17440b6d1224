// Command bonefix realigns the bone order of modded skeletons to match the
// skeletons the game ships with, and patches the animations that depend on
// them.
package main

import (
	"os"
)

var version = "0.1.0-dev"

func main() {
	if err := NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
