// Command tms evaluates designer assignments from the command line and
// serves the evaluation tool over MCP.
package main

import (
	"os"

	"github.com/SFZPL/tms-sub000/pkg/logger"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	// stdout carries reports and the MCP stream; logs go to stderr.
	if err := logger.InitStderr(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := newCLIApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}
