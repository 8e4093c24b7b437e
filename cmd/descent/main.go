// Command descent lowers vex-dialect IR modules to the prim dialect.
package main

import (
	"fmt"
	"os"

	"github.com/descent-ir/descent/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
