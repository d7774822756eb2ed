// Package main is the entry point for the hydra CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"hydra/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
