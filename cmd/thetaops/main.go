package main

import (
	"os"

	"github.com/3jane-protocol/3jane-contracts/cmd/thetaops/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
