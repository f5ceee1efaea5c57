package main

import (
	"os"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewRootCommand()))
}
