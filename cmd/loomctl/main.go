package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	// Import for side effects: register all writer backends and validator
	// rules via init(), mirroring cmd/augustus's blank-import block.
	_ "github.com/loomstory/director/internal/llm/anthropic"
	_ "github.com/loomstory/director/internal/llm/bedrock"
	_ "github.com/loomstory/director/internal/llm/lipsum"
	_ "github.com/loomstory/director/internal/llm/openai"
	_ "github.com/loomstory/director/internal/validator/rules"
)

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("loomctl"),
		kong.Description("loomctl - AI-assisted interactive-narrative runtime operator CLI"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Exit(func(code int) {
			if code != 0 {
				os.Exit(2)
			}
			os.Exit(0)
		}),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
