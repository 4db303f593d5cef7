// Package main is the entry point for the codegraph CLI.
package main

import (
	"github.com/ravescovi/codegraph/internal/cmd"
)

func main() {
	cmd.Execute()
}
