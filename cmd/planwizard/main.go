package main

import (
	"fmt"
	"os"

	"github.com/jask/planwizard/cmd/planwizard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "planwizard could not start: %v\n", err)
		os.Exit(1)
	}
}
