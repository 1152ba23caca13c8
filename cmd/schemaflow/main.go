package main

import (
	"fmt"
	"os"

	"github.com/syssam/schemaflow/internal/cmd"
)

func main() {
	if err := cmd.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "schemaflow:", err)
		os.Exit(1)
	}
}
