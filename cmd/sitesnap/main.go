// Package main is the entry point for the sitesnap CLI.
package main

import (
	"os"

	"github.com/sitesnap/sitesnap/cmd/sitesnap/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
