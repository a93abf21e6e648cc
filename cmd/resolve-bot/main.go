package main

import (
	"os"

	"github.com/sst-resolve/resolve-bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
