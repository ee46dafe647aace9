package main

import (
	"os"

	"github.com/pfrederiksen/catchlottery/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	os.Exit(cli.Execute())
}
