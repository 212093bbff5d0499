package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the korrekturtool version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("korrekturtool %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(versionCmd)
}
