package main

import (
	"fmt"
	"os"

	"github.com/jacentio/kennel/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", cli.FormatError(err))
		os.Exit(1)
	}
}
