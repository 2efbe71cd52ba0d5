package main

import (
	"context"
	"fmt"
	"os"

	"cachebundle/internal/cli"
)

func main() {
	code, err := cli.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(code)
}
