// Package main provides the peerreviewctl entry point.
package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/peer-review-dashboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
