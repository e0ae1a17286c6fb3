package main

import (
	"os"

	"github.com/mvexel/osm-fourmore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
