// Package main is the entry point for the fletcherctl CLI.
// The CLI is the developer terminal tool for interacting with the Fletcher API.
package main

import (
	"fletcher/cmd/fletcherctl/cmd"
	"os"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
