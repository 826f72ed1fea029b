// Command evalctl runs the coach and the graders offline, against a single
// transcript or a whole practice workbook.
package main

import (
	"errors"
	"fmt"
	"os"

	"roleplay-coach-go/internal/config"
	"roleplay-coach-go/internal/llm"
)

func main() {
	cfg := config.Load()

	client, err := llm.FromConfig(cfg)
	if err != nil && !errors.Is(err, llm.ErrNotConfigured) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	app := newCLIApp(&env{cfg: cfg, client: client, in: os.Stdin, out: os.Stdout})
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
