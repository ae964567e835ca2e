package main

import (
	"os"

	"github.com/prgtools/prg2geoparquet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
