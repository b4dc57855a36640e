// Package main provides the entry point for the storyindex CLI.
package main

import (
	"os"

	"github.com/slateview/storyindex/cmd/storyindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
