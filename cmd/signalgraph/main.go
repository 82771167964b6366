// Package main is the entry point for the signalgraph application.
package main

import (
	"os"

	"github.com/jmylchreest/signalgraph/cmd/signalgraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
