package main

import (
	"os"

	"github.com/dshills/colsolve/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
