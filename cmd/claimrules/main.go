package main

import (
	"os"

	"github.com/clearclaim/claimrules/cmd/claimrules/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
