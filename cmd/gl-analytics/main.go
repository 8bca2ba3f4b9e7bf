package main

import (
	"fmt"
	"os"

	"gl-analytics/cmd/gl-analytics/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
