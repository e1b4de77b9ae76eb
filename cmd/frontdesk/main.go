package main

import (
	"os"

	"github.com/frontdesk-ai/frontdesk/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
