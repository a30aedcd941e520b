package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-formlogic/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "formlogic:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
