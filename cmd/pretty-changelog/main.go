package main

import (
	"os"

	"github.com/chachako/pretty-changelog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
