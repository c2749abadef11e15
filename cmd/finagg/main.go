package main

import (
	"os"

	"github.com/orhss/finagg/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
