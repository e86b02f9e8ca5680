package main

import (
	"github.com/sidkik/treesync/cmd"
	"github.com/sidkik/treesync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
