package main

import (
	"os"

	"github.com/looply-app/looply-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
