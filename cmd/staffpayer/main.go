package main

import (
	"os"

	"github.com/daveytran/playback-stats-staff-payer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
