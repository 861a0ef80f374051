// Package main provides the avosctl operator tool.
//
// Usage:
//
//	avosctl <command> [flags]
//
// Commands:
//
//	index    - Print the phonetic index derived from a catalog file
//	replay   - Run a scripted conversation against the dialog engine
//	record   - Fetch an archived call record from DynamoDB
package main

import (
	"fmt"
	"os"

	"avos/cmd/avosctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
