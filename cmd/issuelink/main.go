package main

import (
	"fmt"
	"os"

	"github.com/jadenj13/issuelink/internals/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
