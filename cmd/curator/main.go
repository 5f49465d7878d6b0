// Package main is the entry point for the curator CLI binary.
package main

import (
	"os"

	"econ-curator/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
