package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// CLI represents the loomctl command-line interface.
var CLI struct {
	Debug      bool          `help:"Enable debug logging." short:"d" env:"LOOMCTL_DEBUG"`
	Version    VersionCmd    `cmd:"" help:"Print version information."`
	Help       HelpCmd       `cmd:"" hidden:"" default:"1"`
	List       ListCmd       `cmd:"" help:"List registered writer backends and validator rules."`
	Demo       DemoCmd       `cmd:"" help:"Run one simulated choice point end-to-end against an in-memory story."`
	Validate   ValidateCmd   `cmd:"" help:"Load and validate a runtime configuration file."`
	Completion CompletionCmd `cmd:"" help:"Generate shell completion scripts."`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	printVersion()
	return nil
}

// HelpCmd prints top-level help.
type HelpCmd struct{}

func (h *HelpCmd) Run(ctx *kong.Context) error {
	appCtx := *ctx
	if len(appCtx.Path) > 1 {
		appCtx.Path = appCtx.Path[:1]
	}
	return appCtx.PrintUsage(false)
}

// ListCmd lists registered capabilities.
type ListCmd struct{}

func (l *ListCmd) Run() error {
	listCapabilities()
	return nil
}

// CompletionCmd generates shell completion scripts.
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)."`
}

func (c *CompletionCmd) Run() error {
	switch c.Shell {
	case "bash":
		fmt.Println("# Bash completion for loomctl")
		fmt.Println("# eval \"$(loomctl completion bash)\"")
	case "zsh":
		fmt.Println("# Zsh completion for loomctl")
		fmt.Println("# eval \"$(loomctl completion zsh)\"")
	case "fish":
		fmt.Println("# Fish completion for loomctl")
		fmt.Println("# loomctl completion fish | source")
	}
	return nil
}
