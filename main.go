package main

import (
	"os"

	"github.com/safdarjung/resume-interview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
