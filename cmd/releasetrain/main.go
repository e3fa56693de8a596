package main

import (
	"os"

	"github.com/grokify/releasetrain/cmd/releasetrain/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
