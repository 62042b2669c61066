// Package main is the entry point for the nbfix CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/nbfix/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
