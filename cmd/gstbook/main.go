package main

import (
	"os"

	"github.com/gstbook-dev/gstbook/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
