// Package rules blank-imports every Validator rule implementation so a
// single import wires the whole pipeline into internal/validator.Registry,
// mirroring how cmd/augustus blank-imports each detector package.
package rules

import (
	_ "github.com/loomstory/director/internal/validator/rules/charactervoice"
	_ "github.com/loomstory/director/internal/validator/rules/explicitcontent"
	_ "github.com/loomstory/director/internal/validator/rules/length"
	_ "github.com/loomstory/director/internal/validator/rules/markupstrip"
	_ "github.com/loomstory/director/internal/validator/rules/narrativesyntax"
	_ "github.com/loomstory/director/internal/validator/rules/profanity"
	_ "github.com/loomstory/director/internal/validator/rules/returnpath"
	_ "github.com/loomstory/director/internal/validator/rules/schema"
)
