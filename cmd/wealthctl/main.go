package main

import (
	"os"

	"wealthbook/cmd/wealthctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
