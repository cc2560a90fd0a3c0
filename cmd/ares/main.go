// Package main is the entry point for the ares admin console.
package main

import (
	"os"

	"github.com/ares-console/ares/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
