package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"shorts-pipeline/internal/cli"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
