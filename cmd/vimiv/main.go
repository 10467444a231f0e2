package main

import (
	"fmt"
	"os"

	"github.com/vimiv-engine/vimiv/cmd/vimiv/commands"
)

func main() {
	err := commands.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(commands.AsExitCode(err))
}
