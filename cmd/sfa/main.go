package main

import (
	"os"

	"github.com/RyanBlaney/sonido-sfa/logging"
)

func main() {
	// stdout carries the bags
	logging.SetGlobalLogger(logging.NewDefaultLoggerWithWriters(os.Stderr, os.Stderr))

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		logging.Error(err, "sfa failed")
		os.Exit(1)
	}
}
