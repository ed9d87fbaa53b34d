// Package model defines the declarative form definitions rendered and
// submitted by the rest of the module. A FormDefinition names its submission
// URL, lists its fields in order, arranges them into layout rows, and carries
// a static payload merged into every submission. Definitions are read-only
// once loaded; per-instance values live on the controller, never here.
package model
