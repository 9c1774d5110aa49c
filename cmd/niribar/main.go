package main

import (
	"os"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/cmd"
)

func main() {
	if err := cli.Execute(cmd.NewRootCmd()); err != nil {
		os.Exit(1)
	}
}
