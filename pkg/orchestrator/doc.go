// Package orchestrator wires form definitions, transformers and renderers
// behind a single Generate call, and builds controllers for the same
// catalog so rendered markup and submission handling share one definition.
package orchestrator
