// Command hrctl is a terminal client for the HR admin API.
package main

import (
	"os"

	_ "github.com/JonMunkholm/hradmin/internal/core/resources" // Register all resources
)

func main() {
	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	if err := c.execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
