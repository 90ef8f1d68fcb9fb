package main

import (
	"os"

	"github.com/flakeup-dev/flakeup/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
