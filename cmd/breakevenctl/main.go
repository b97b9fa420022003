package main

import (
	"fmt"
	"os"

	"breakeven/internal/cli"
	"breakeven/internal/ctl"
)

func main() {
	cli.LoadEnvFile()

	if err := ctl.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
