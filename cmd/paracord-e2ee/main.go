package main

import (
	"os"

	"github.com/Scdouglas1999/Paracord/cmd/paracord-e2ee/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
