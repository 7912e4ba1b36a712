package main

import (
	"os"

	gazettecmder "github.com/amategeko/gazette/cmd/gazette"
)

func main() {
	cmd := gazettecmder.NewGazetteCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
