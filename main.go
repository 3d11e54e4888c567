package main

import (
	"context"
	"fmt"
	"os"

	"github.com/USA-RedDragon/configulator"

	"github.com/t31hub/t31hub/cmd"
	"github.com/t31hub/t31hub/internal/config"
)

// version and commit are set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	c := configulator.New[config.Config]()
	ctx := c.Context(context.Background())

	rootCmd := cmd.NewCommand(version, commit)
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
