// Package main is the stitchql CLI entry point.
package main

import (
	"os"

	"github.com/stitchql/stitchql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
