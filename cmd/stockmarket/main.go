package main

import (
	"os"

	"github.com/rustyeddy/stockmarket/cmd/stockmarket/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
