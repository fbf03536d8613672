package main

import (
	"fmt"

	"github.com/loomstory/director/pkg/config"
)

// ValidateCmd loads a runtime configuration file and reports whether it
// passes struct and cross-field validation, without starting anything.
type ValidateCmd struct {
	ConfigFile string `arg:"" help:"YAML config file to validate." type:"existingfile"`
}

func (v *ValidateCmd) Run() error {
	cfg, err := config.Load(v.ConfigFile)
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	fmt.Printf("%s: valid\n", v.ConfigFile)
	fmt.Printf("  writer.model=%s\n", cfg.Writer.Model)
	fmt.Printf("  validator.enabledRules=%v\n", cfg.Validator.EnabledRules)
	fmt.Printf("  director.riskThreshold=%.2f\n", cfg.Director.RiskThreshold)
	return nil
}
