// Package main is the entry point for the ipw raw frame tool.
package main

import (
	"fmt"
	"os"

	"github.com/XaydBayeck/ipw/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
