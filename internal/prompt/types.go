// Package prompt implements the Prompt Engine (spec §4.2): template
// selection by inferred context type, and deterministic rendering of
// system/user prompt pairs from a LORE snapshot.
package prompt

// Template holds the raw text/template source for one context family.
// System is the static role/schema/prohibitions prompt; User interpolates
// LORE fields.
type Template struct {
	ID     string `yaml:"id"`
	System string `yaml:"system"`
	User   string `yaml:"user"`
}
