// Package main is the kinematics command: it serves the kinematics HTTP API or runs a single
// request against a configured chain.
package main

import (
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger := newLogger()
		logger.Error(err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
