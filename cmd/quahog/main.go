package main

import (
	"fmt"
	"os"

	"github.com/quahogtools/quahog/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderErr("error: "+err.Error()))
		os.Exit(1)
	}
}
