package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/templui/goalboard/cmd/goalctl/cmd"
	"github.com/templui/goalboard/internal/logger"
)

func main() {
	// Logs go to stderr so stdout stays clean for command output.
	slog.SetDefault(logger.New(os.Stderr, os.Getenv("GOALCTL_DEBUG") != "", "", "cli"))

	if err := cmd.NewRootCmd(cmd.Options{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
