package main

import (
	"github.com/paulstuart/gollm/unityrel"
	"github.com/paulstuart/gollm/unityrel/pkg/output"
)

func main() {
	output.SetupLogging(false)

	paths, err := unityrel.Run(unityrel.DefaultConfig())
	if err != nil {
		output.Fatal("Error saving results", "err", err)
	}

	output.Infof("Successfully wrote %d category files", len(paths))
}
