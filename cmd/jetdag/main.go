// Command jetdag compiles function specs and propagates Taylor jets
// through them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/jetdag/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
