package main

import (
	"os"

	"github.com/Tusharkanta407/HoneyPot/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
