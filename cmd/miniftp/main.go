// Command miniftp is a small FTP client for scripts and terminals.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr, os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}
