package main

import (
	"os"

	"github.com/o9nn/opencoq-sub001/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
