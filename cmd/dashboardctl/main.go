package main

import (
	"fmt"
	"os"
)

var Version string

func main() {
	cli := &Cli{}
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
