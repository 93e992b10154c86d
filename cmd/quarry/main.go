// Package main provides the CLI for the Quarry spatial SQL notebook.
package main

import (
	"os"

	"github.com/quarrylabs/quarry/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
