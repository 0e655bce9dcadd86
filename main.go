package main

import (
	"os"

	"github.com/conneroisu/rockplate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
