package main

import (
	"os"

	"github.com/rustyeddy/kisrebal/cmd/kisrebal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
