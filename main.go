package main

import (
	"os"

	"github.com/ciclofficina/tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
