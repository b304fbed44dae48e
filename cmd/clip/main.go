// Package main is the entry point for the clip CLI.
package main

import (
	"os"

	"github.com/abdul-hamid-achik/clipshare/cmd/clip/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
