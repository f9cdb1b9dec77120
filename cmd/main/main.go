package main

import (
	"os"

	"github.com/matt-steen/trellis/pkg/commands"
)

func main() {
	// cobra has already printed the error.
	if err := commands.New().Execute(); err != nil {
		os.Exit(1)
	}
}
