package main

import (
	"fmt"

	"github.com/loomstory/director/internal/llm"
	"github.com/loomstory/director/internal/validator"
)

const version = "0.1.0"

func printVersion() {
	fmt.Printf("loomctl %s\n", version)
}

func listCapabilities() {
	fmt.Println("Registered Capabilities")
	fmt.Println("=======================")
	fmt.Println()

	fmt.Printf("Writer backends (%d):\n", llm.Writers.Count())
	for _, name := range llm.Writers.List() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println()

	fmt.Printf("Validator rules (%d):\n", validator.Registry.Count())
	for _, name := range validator.Registry.List() {
		fmt.Printf("  - %s\n", name)
	}
}
