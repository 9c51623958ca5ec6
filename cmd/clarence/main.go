package main

import (
	"fmt"
	"os"

	"github.com/example/clarence/internal/cli"
	"github.com/example/clarence/internal/db"
)

func main() {
	rootCmd := cli.NewRootCmd()

	err := rootCmd.Execute()
	db.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
