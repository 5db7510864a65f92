package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/cli"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aoc:", err)
		var rlErr *web.RateLimitError
		if errors.As(err, &rlErr) {
			os.Exit(4)
		}
		os.Exit(1)
	}
}
