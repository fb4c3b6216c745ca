// Command loopc compiles programs of a small typed language to WebAssembly.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/loopc/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}

	// Commands report their own failures. Anything else is a usage error
	// from cobra (unknown flag, wrong argument count).
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
