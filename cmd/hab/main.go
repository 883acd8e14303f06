package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tingly-dev/hab-export/internal/command"
)

// Build information variables
var (
	// Set by compiler via -ldflags
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
	platform  = "unknown"
)

func main() {
	app := &command.App{
		Build: command.BuildInfo{
			Version:   version,
			GitCommit: gitCommit,
			BuildTime: buildTime,
			Platform:  platform,
		},
		Args: os.Args[1:],
	}

	root := command.NewRootCommand(app)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(command.ExitCode(err))
	}
}
